package strategic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/physics"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func entryWithEfficiency(eff float64) types.HistoryEntry {
	return types.HistoryEntry{
		Packet:  types.WitsPacket{RigState: types.RigDrilling},
		Metrics: types.DrillingMetrics{MSEEfficiency: eff, State: types.RigDrilling},
	}
}

func TestVerifyTicket_CriticalBypassesTrendCheck(t *testing.T) {
	ticket := &types.AdvisoryTicket{Severity: types.SeverityCritical, Category: types.CategoryWellControl}
	result := VerifyTicket(ticket, nil, 0, 0, physics.DefaultFounderConfig())
	assert.Equal(t, types.VerificationConfirmed, result.Status)
}

func TestVerifyTicket_WellControlBypassesTrendCheckEvenIfNotCritical(t *testing.T) {
	ticket := &types.AdvisoryTicket{Severity: types.SeverityHigh, Category: types.CategoryWellControl}
	result := VerifyTicket(ticket, nil, 0, 0, physics.DefaultFounderConfig())
	assert.Equal(t, types.VerificationConfirmed, result.Status)
}

func TestVerifyTicket_EfficiencyRejectedWithoutSustainedTrend(t *testing.T) {
	var history []types.HistoryEntry
	for i := 0; i < 20; i++ {
		history = append(history, entryWithEfficiency(90)) // well above 70
	}
	ticket := &types.AdvisoryTicket{Severity: types.SeverityMedium, Category: types.CategoryDrillingEfficiency}
	result := VerifyTicket(ticket, history, 0, 0, physics.DefaultFounderConfig())
	assert.Equal(t, types.VerificationRejected, result.Status)
}

func TestVerifyTicket_EfficiencyConfirmedWithSustainedTrend(t *testing.T) {
	var history []types.HistoryEntry
	for i := 0; i < 20; i++ {
		history = append(history, entryWithEfficiency(50)) // well below 70
	}
	ticket := &types.AdvisoryTicket{Severity: types.SeverityMedium, Category: types.CategoryDrillingEfficiency, TriggerParameter: "mse_efficiency"}
	result := VerifyTicket(ticket, history, 0, 0, physics.DefaultFounderConfig())
	assert.Equal(t, types.VerificationConfirmed, result.Status)
}

func TestVerifyTicket_ContradictedByOppositeSignLead(t *testing.T) {
	var history []types.HistoryEntry
	for i := 0; i < 20; i++ {
		history = append(history, entryWithEfficiency(50))
	}
	ticket := &types.AdvisoryTicket{
		Severity: types.SeverityMedium, Category: types.CategoryDrillingEfficiency,
		TriggerParameter: "mse_efficiency", TriggerValue: -5,
	}
	leads := []types.CausalLead{{Parameter: "mse_efficiency", LagSeconds: 2, PearsonR: 0.8, CorrelationSign: 1}}
	contradicted, lead := findContradiction(ticket, leads)
	require.True(t, contradicted)
	assert.Equal(t, types.DrillingParameter("mse_efficiency"), lead.Parameter)
}

func TestVerifyTicket_NoContradictionBeyondMaxLag(t *testing.T) {
	ticket := &types.AdvisoryTicket{TriggerParameter: "mse_efficiency", TriggerValue: -5}
	leads := []types.CausalLead{{Parameter: "mse_efficiency", LagSeconds: 20, PearsonR: 0.8, CorrelationSign: 1}}
	contradicted, _ := findContradiction(ticket, leads)
	assert.False(t, contradicted)
}

func TestVerifyTicket_EmptyHistoryRejectsNonSafetyTicket(t *testing.T) {
	ticket := &types.AdvisoryTicket{Severity: types.SeverityMedium, Category: types.CategoryDrillingEfficiency}
	result := VerifyTicket(ticket, nil, 0, 0, physics.DefaultFounderConfig())
	assert.Equal(t, types.VerificationRejected, result.Status)
}
