package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/sensors"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <csv>",
		Short: "Deterministically feed a CSV of historic packets through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	csvPath := args[0]

	dep, err := buildDeployment(configFile, nil)
	if err != nil {
		return err
	}
	defer dep.close()

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", sensors.ErrInputParse, csvPath, err)
	}
	defer f.Close()

	ctx := context.Background()
	rows, err := newCSVPacketReader(f)
	if err != nil {
		return err
	}

	for {
		packet, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		dep.registry.PacketsIngested.Inc()
		dep.pipeline.OnPacket(ctx, packet, 1.0)
	}

	log.Info().Int("rows", rows.rowCount).Msg("replay complete")
	return nil
}

// csvPacketReader decodes one types.WitsPacket per row from a header'd
// CSV file; column order is free, extra/unknown columns are ignored,
// and a missing column simply leaves that field at its zero value.
type csvPacketReader struct {
	r        *csv.Reader
	colIndex map[string]int
	rowCount int
}

func newCSVPacketReader(f io.Reader) (*csvPacketReader, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", sensors.ErrInputParse, err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}
	return &csvPacketReader{r: r, colIndex: colIndex}, nil
}

func (c *csvPacketReader) Next() (types.WitsPacket, error) {
	record, err := c.r.Read()
	if err == io.EOF {
		return types.WitsPacket{}, io.EOF
	}
	if err != nil {
		return types.WitsPacket{}, fmt.Errorf("%w: read csv row %d: %v", sensors.ErrInputParse, c.rowCount+1, err)
	}
	c.rowCount++

	packet := types.WitsPacket{
		Timestamp:       c.int64Field(record, "timestamp"),
		BitDepth:        c.floatField(record, "bit_depth"),
		HoleDepth:       c.floatField(record, "hole_depth"),
		ROP:             c.floatField(record, "rop"),
		HookLoad:        c.floatField(record, "hook_load"),
		WOB:             c.floatField(record, "wob"),
		RPM:             c.floatField(record, "rpm"),
		Torque:          c.floatField(record, "torque"),
		BitDiameter:     c.floatField(record, "bit_diameter"),
		SPP:             c.floatField(record, "spp"),
		PumpSPM:         c.floatField(record, "pump_spm"),
		FlowIn:          c.floatField(record, "flow_in"),
		FlowOut:         c.floatField(record, "flow_out"),
		PitVolume:       c.floatField(record, "pit_volume"),
		PitVolumeChange: c.floatField(record, "pit_volume_change"),
		MudWeightIn:     c.floatField(record, "mud_weight_in"),
		MudWeightOut:    c.floatField(record, "mud_weight_out"),
		ECD:             c.floatField(record, "ecd"),
		MudTempIn:       c.floatField(record, "mud_temp_in"),
		MudTempOut:      c.floatField(record, "mud_temp_out"),
		GasUnits:        c.floatField(record, "gas_units"),
		BackgroundGas:   c.floatField(record, "background_gas"),
		ConnectionGas:   c.floatField(record, "connection_gas"),
		H2S:             c.floatField(record, "h2s"),
		CO2:             c.floatField(record, "co2"),
		CasingPressure:  c.floatField(record, "casing_pressure"),
		AnnularPressure: c.floatField(record, "annular_pressure"),
		RigState:        types.RigState(c.stringField(record, "rig_state")),
	}
	return packet, nil
}

func (c *csvPacketReader) stringField(record []string, name string) string {
	idx, ok := c.colIndex[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func (c *csvPacketReader) floatField(record []string, name string) float64 {
	s := c.stringField(record, name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func (c *csvPacketReader) int64Field(record []string, name string) int64 {
	s := c.stringField(record, name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
