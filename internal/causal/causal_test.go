package causal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func makeEntry(wob, rpm, torque, spp, rop, mse float64) types.HistoryEntry {
	packet := types.WitsPacket{
		BitDepth: 10000, ROP: rop, WOB: wob, RPM: rpm, Torque: torque, SPP: spp,
		RigState: types.RigDrilling,
	}
	metrics := types.DrillingMetrics{MSE: mse, State: types.RigDrilling}
	return types.HistoryEntry{Packet: packet, Metrics: metrics}
}

func TestDetectLeads_EmptyHistory(t *testing.T) {
	assert.Empty(t, DetectLeads(nil))
}

func TestDetectLeads_InsufficientHistory(t *testing.T) {
	entries := make([]types.HistoryEntry, 10)
	for i := range entries {
		entries[i] = makeEntry(25, 120, 15, 2800, 50, 30000)
	}
	assert.Empty(t, DetectLeads(entries))
}

func TestDetectLeads_WOBLeadsMSE(t *testing.T) {
	var entries []types.HistoryEntry
	for i := 0; i < 20; i++ {
		entries = append(entries, makeEntry(20, 120, 15, 2800, 50, 20000))
	}
	for i := 0; i < 20; i++ {
		entries = append(entries, makeEntry(30, 120, 15, 2800, 50, 20000))
	}
	for i := 0; i < 20; i++ {
		entries = append(entries, makeEntry(30, 120, 15, 2800, 50, 40000))
	}
	leads := DetectLeads(entries)
	var found *types.CausalLead
	for i := range leads {
		if leads[i].Parameter == types.ParamWOB {
			found = &leads[i]
		}
	}
	if assert.NotNil(t, found) {
		assert.Greater(t, found.PearsonR, 0.0)
		assert.Greater(t, found.LagSeconds, 0)
	}
}

func TestDetectLeads_MaxThreeResults(t *testing.T) {
	var entries []types.HistoryEntry
	for i := 0; i < 60; i++ {
		v := float64(i)
		entries = append(entries, makeEntry(v, v*5, v*0.5, v*20, v, v*500))
	}
	leads := DetectLeads(entries)
	assert.LessOrEqual(t, len(leads), MaxLeads)
}

func TestDetectLeads_SortedByAbsRDescending(t *testing.T) {
	var entries []types.HistoryEntry
	for i := 0; i < 60; i++ {
		v := float64(i)
		entries = append(entries, makeEntry(v, v*5, v*0.5, v*20, v, v*500))
	}
	leads := DetectLeads(entries)
	for i := 1; i < len(leads); i++ {
		prev := leads[i-1].PearsonR
		cur := leads[i].PearsonR
		if prev < 0 {
			prev = -prev
		}
		if cur < 0 {
			cur = -cur
		}
		assert.GreaterOrEqual(t, prev, cur)
	}
}
