package advisory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

type stubBackend struct {
	reply string
	err   error
}

func (s stubBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testTicket(category types.AnomalyCategory, severity types.TicketSeverity) *types.AdvisoryTicket {
	return &types.AdvisoryTicket{
		Timestamp: 1000,
		Type:      types.TicketRiskWarning,
		Category:  category,
		Severity:  severity,
		CurrentMetrics: types.DrillingMetrics{
			State:         types.RigDrilling,
			MSE:           45000,
			MSEEfficiency: 45,
			FlowBalance:   3,
			ECDMargin:     0.8,
		},
		TriggerParameter: "mse_efficiency",
		TriggerValue:     45,
		ThresholdValue:   60,
		TraceLog:         []string{"trend sustained over 20 entries"},
	}
}

func testPhysics() types.DrillingPhysicsReport {
	return types.DrillingPhysicsReport{
		CurrentDepth:     10000,
		CurrentROP:       50,
		CurrentWOB:       25,
		CurrentRPM:       120,
		CurrentTorque:    15,
		CurrentSPP:       2500,
		CurrentFlowIn:    500,
		CurrentFlowOut:   505,
		CurrentMudWeight: 12,
		CurrentECD:       12.4,
		CurrentGas:       50,
		CurrentPitVolume: 500,
		AvgMSE:           45000,
		OptimalMSE:       35000,
		MSEEfficiency:    45,
	}
}

func TestCompose_UsesTemplateWhenNoBackend(t *testing.T) {
	c := NewComposer(nil)
	ticket := testTicket(types.CategoryDrillingEfficiency, types.SeverityMedium)
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, nil)

	assert.Equal(t, "template", adv.Source)
	assert.InDelta(t, 0.70, adv.Confidence, 1e-9)
	assert.NotEmpty(t, adv.Recommendation)
	assert.Equal(t, types.RiskElevated, adv.RiskLevel)
}

func TestCompose_TimestampComesFromTicketNotWallClock(t *testing.T) {
	c := NewComposer(nil)
	ticket := testTicket(types.CategoryDrillingEfficiency, types.SeverityMedium)
	ticket.Timestamp = 1_650_000_000

	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, nil)

	assert.Equal(t, int64(1_650_000_000), adv.Timestamp)
}

func TestCompose_UsesLLMReplyWhenBackendSucceeds(t *testing.T) {
	reply := "TYPE: OPTIMIZATION\nPRIORITY: MEDIUM\nCONFIDENCE: 82%\n" +
		"RECOMMENDATION: Reduce WOB by 5 klbs.\nEXPECTED BENEFIT: 15% ROP gain.\n" +
		"REASONING: MSE 45000 vs optimal 35000 indicates founder onset."
	c := NewComposer(stubBackend{reply: reply})
	ticket := testTicket(types.CategoryDrillingEfficiency, types.SeverityMedium)
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, nil)

	assert.Equal(t, "llm", adv.Source)
	assert.InDelta(t, 0.82, adv.Confidence, 1e-9)
	assert.Contains(t, adv.Recommendation, "WOB")
}

func TestCompose_FallsBackToTemplateWhenBackendErrors(t *testing.T) {
	c := NewComposer(stubBackend{err: errors.New("backend unreachable")})
	ticket := testTicket(types.CategoryWellControl, types.SeverityCritical)
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, nil)

	assert.Equal(t, "template", adv.Source)
	assert.Equal(t, types.RiskCritical, adv.RiskLevel)
	assert.Contains(t, adv.Recommendation, "WELL CONTROL")
}

func TestCompose_FallsBackToTemplateOnGarbageReply(t *testing.T) {
	c := NewComposer(stubBackend{reply: ""})
	ticket := testTicket(types.CategoryMechanical, types.SeverityHigh)
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, nil)

	assert.Equal(t, "template", adv.Source)
	assert.Equal(t, types.RiskHigh, adv.RiskLevel)
}

func TestCompose_CapsKBSnippetsToThree(t *testing.T) {
	c := NewComposer(nil)
	ticket := testTicket(types.CategoryFormation, types.SeverityLow)
	snippets := []string{"a", "b", "c", "d", "e"}
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignProduction, snippets)

	assert.Len(t, adv.ContextUsed, 3)
}

func TestCompose_PACampaignAddsFlowTolerance(t *testing.T) {
	c := NewComposer(nil)
	ticket := testTicket(types.CategoryWellControl, types.SeverityCritical)
	adv := c.Compose(context.Background(), ticket, testPhysics(), types.CampaignPlugAbandonment, nil)

	assert.Contains(t, adv.Recommendation, "P&A mode")
}

func TestComposeOptimization_TaggedOptimizationEngine(t *testing.T) {
	optAdv := types.OptimizationAdvisory{
		Formation: "Balder",
		Recommendations: []types.ParameterRecommendation{
			{Parameter: types.ParamWOB, CurrentValue: 15, RecommendedValue: 20, ExpectedImpact: 0.4, Evidence: "prognosis optimal"},
		},
		Confidence:    types.ConfidenceBreakdown{OffsetWells: 1.0, ParameterGap: 0.8, TrendConsistency: 0.5, SensorQuality: 1.0, CfCAgreement: 0.7},
		MSEEfficiency: 72,
		Source:        "optimization_engine",
	}
	adv := ComposeOptimization(optAdv, 1_700_000_000)

	assert.Equal(t, "optimization_engine", adv.Source)
	assert.Equal(t, int64(1_700_000_000), adv.Timestamp)
	assert.Contains(t, adv.Recommendation, "Balder")
	require.Greater(t, adv.Confidence, 0.0)
}

func TestComposeLookAhead_TaggedLookahead(t *testing.T) {
	la := types.LookAheadAdvisory{
		FormationName:    "Balder",
		EstimatedMinutes: 15,
		DepthRemainingFt: 50,
		ParameterChanges: []string{"WOB: 20 → 30 klbs (increase by 10)"},
		Hazards:          []string{"Lost circulation risk"},
	}
	adv := ComposeLookAhead(la, 1_700_000_100)

	assert.Equal(t, "lookahead", adv.Source)
	assert.Equal(t, int64(1_700_000_100), adv.Timestamp)
	assert.Contains(t, adv.Recommendation, "Balder")
	assert.Contains(t, adv.Recommendation, "Lost circulation risk")
}
