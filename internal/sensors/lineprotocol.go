// Package sensors ingests rig telemetry over the ASCII line protocol
// and over newline-delimited JSON, and manages the reconnecting TCP
// client that feeds them. The line-protocol item table and the
// reconnect/staleness constants are ported from
// original_source/src/acquisition/wits_parser.rs's WitsClient; the
// exponential-backoff loop shape is grounded on teacher
// CRun/src/infrastructure/websocket/manager.go's Manager.Run.
package sensors

import (
	"strconv"
	"strings"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/tactical"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// Item codes for WITS Level 0 Record 01 (time-based drilling data).
// Ported 1:1 from wits_parser.rs's wits_items module.
const (
	itemBlockPosition  = "0105"
	itemBitDepth       = "0108"
	itemHoleDepth      = "0110"
	itemROP            = "0113"
	itemHookLoad       = "0114"
	itemWOB            = "0116"
	itemRPM            = "0117"
	itemTorque         = "0118"
	itemSPP            = "0119"
	itemPumpSPM1       = "0120"
	itemFlowIn         = "0121"
	itemFlowOut        = "0122"
	itemPitVolume      = "0123"
	itemMudWeightIn    = "0124"
	itemMudWeightOut   = "0125"
	itemMudTempIn      = "0126"
	itemMudTempOut     = "0127"
	itemCasingPressure = "0130"
	itemGasUnits       = "0140"
	itemH2S            = "0142"
	itemCO2            = "0143"
	itemECD            = "0150"
)

// RecordParser accumulates MMNNVALUE lines between a "&&" start-of-
// record marker and a "!!" end-of-record marker and converts a
// completed record into a WitsPacket.
type RecordParser struct {
	inRecord    bool
	items       map[string]float64
	bitDiameter float64
}

// NewRecordParser builds a parser that stamps every decoded packet
// with bitDiameterInches (the well-config constant WITS Level 0 does
// not itself transmit).
func NewRecordParser(bitDiameterInches float64) *RecordParser {
	return &RecordParser{items: make(map[string]float64, 24), bitDiameter: bitDiameterInches}
}

// Feed processes one line of input. It returns a decoded packet and
// true when line closed a non-empty record; otherwise ok is false and
// the line was either framing, a malformed item, or mid-record.
func (p *RecordParser) Feed(line string, nowUnix int64) (types.WitsPacket, bool) {
	line = strings.TrimSpace(line)

	switch line {
	case "&&":
		p.inRecord = true
		for k := range p.items {
			delete(p.items, k)
		}
		return types.WitsPacket{}, false
	case "!!":
		complete := p.inRecord && len(p.items) > 0
		p.inRecord = false
		if !complete {
			return types.WitsPacket{}, false
		}
		return p.itemsToPacket(nowUnix), true
	}

	if p.inRecord && len(line) >= 5 {
		code, valueStr := line[0:4], line[4:]
		if value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64); err == nil {
			p.items[code] = value
		}
	}
	return types.WitsPacket{}, false
}

func (p *RecordParser) item(code string) float64 {
	return p.items[code]
}

// itemsToPacket maps the accumulated item table onto a WitsPacket.
// Missing items default to 0, per spec. BlockPosition additionally
// sets HasBlockPosition so the rig-state ladder can tell "reported
// zero" from "not reported at all".
func (p *RecordParser) itemsToPacket(nowUnix int64) types.WitsPacket {
	_, hasBlock := p.items[itemBlockPosition]
	packet := types.WitsPacket{
		Timestamp:        nowUnix,
		BitDepth:         p.item(itemBitDepth),
		HoleDepth:        p.item(itemHoleDepth),
		ROP:              p.item(itemROP),
		HookLoad:         p.item(itemHookLoad),
		WOB:              p.item(itemWOB),
		RPM:              p.item(itemRPM),
		Torque:           p.item(itemTorque),
		BitDiameter:      p.bitDiameter,
		SPP:              p.item(itemSPP),
		PumpSPM:          p.item(itemPumpSPM1),
		FlowIn:           p.item(itemFlowIn),
		FlowOut:          p.item(itemFlowOut),
		PitVolume:        p.item(itemPitVolume),
		MudWeightIn:      p.item(itemMudWeightIn),
		MudWeightOut:     p.item(itemMudWeightOut),
		ECD:              p.item(itemECD),
		MudTempIn:        p.item(itemMudTempIn),
		MudTempOut:       p.item(itemMudTempOut),
		GasUnits:         p.item(itemGasUnits),
		H2S:              p.item(itemH2S),
		CO2:              p.item(itemCO2),
		CasingPressure:   p.item(itemCasingPressure),
		BlockPosition:    p.item(itemBlockPosition),
		HasBlockPosition: hasBlock,
	}
	packet.RigState = tactical.ClassifyRigState(packet)
	return packet
}
