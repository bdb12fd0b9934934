package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/sensors"
)

func TestCSVPacketReader_DecodesKnownColumns(t *testing.T) {
	csv := "timestamp,wob,rop,rig_state\n1000,22.5,45.1,drilling\n"
	reader, err := newCSVPacketReader(strings.NewReader(csv))
	require.NoError(t, err)

	packet, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), packet.Timestamp)
	assert.Equal(t, 22.5, packet.WOB)
	assert.Equal(t, 45.1, packet.ROP)
	assert.Equal(t, "drilling", string(packet.RigState))

	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVPacketReader_IgnoresUnknownColumns(t *testing.T) {
	csv := "timestamp,some_future_field,wob\n1000,99,12.0\n"
	reader, err := newCSVPacketReader(strings.NewReader(csv))
	require.NoError(t, err)

	packet, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, 12.0, packet.WOB)
}

func TestCSVPacketReader_MissingColumnDefaultsToZero(t *testing.T) {
	csv := "timestamp\n1000\n"
	reader, err := newCSVPacketReader(strings.NewReader(csv))
	require.NoError(t, err)

	packet, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.0, packet.WOB)
}

func TestCSVPacketReader_MalformedHeaderReturnsInputParseError(t *testing.T) {
	_, err := newCSVPacketReader(strings.NewReader(""))
	assert.ErrorIs(t, err, sensors.ErrInputParse)
}
