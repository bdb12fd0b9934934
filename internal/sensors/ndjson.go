package sensors

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/tactical"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// ErrInputParse wraps a malformed NDJSON or line-protocol record.
var ErrInputParse = errors.New("sensors: malformed input")

// NDJSONReader decodes one WitsPacket per newline-delimited JSON line,
// the alternate sensor transport named alongside the ASCII line
// protocol.
type NDJSONReader struct {
	scanner     *bufio.Scanner
	bitDiameter float64
}

// NewNDJSONReader wraps r, stamping every decoded packet with
// bitDiameterInches unless the line already carries a non-zero value.
func NewNDJSONReader(r io.Reader, bitDiameterInches float64) *NDJSONReader {
	return &NDJSONReader{scanner: bufio.NewScanner(r), bitDiameter: bitDiameterInches}
}

// Next reads and decodes the next line, returning io.EOF once the
// underlying reader is exhausted.
func (n *NDJSONReader) Next() (types.WitsPacket, error) {
	if !n.scanner.Scan() {
		if err := n.scanner.Err(); err != nil {
			return types.WitsPacket{}, fmt.Errorf("sensors: ndjson read: %w", err)
		}
		return types.WitsPacket{}, io.EOF
	}

	var packet types.WitsPacket
	if err := json.Unmarshal(n.scanner.Bytes(), &packet); err != nil {
		return types.WitsPacket{}, fmt.Errorf("%w: ndjson decode: %v", ErrInputParse, err)
	}
	if packet.BitDiameter == 0 {
		packet.BitDiameter = n.bitDiameter
	}
	if packet.RigState == "" {
		packet.RigState = tactical.ClassifyRigState(packet)
	}
	return packet, nil
}
