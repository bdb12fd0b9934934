// Package advisory composes the final strategic advisory from a
// confirmed ticket, the physics report, and (optionally) an optimizer
// advisory and an LLM backend. Structurally generalizes the teacher's
// nested-breakdown + interpretation-helper idiom (formerly
// internal/explain/explainer.go) to drilling advisories: per-category
// template functions stand in for the teacher's per-factor
// interpretX(value) helpers.
package advisory

import (
	"fmt"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// templateConfidence is the fixed confidence assigned to any
// template-composed (non-LLM) advisory.
const templateConfidence = 0.70

// templateText is the category template's three-part output, ported
// from original_source/src/strategic/templates.rs.
type templateText struct {
	recommendation  string
	expectedBenefit string
	reasoning       string
}

// renderTemplate dispatches to the category-specific template and
// returns its three text fields. The fixed template confidence is set
// by the caller (Compose), not here.
func renderTemplate(ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport, campaign types.Campaign) templateText {
	switch ticket.Category {
	case types.CategoryWellControl:
		return wellControlTemplate(ticket, physics, campaign)
	case types.CategoryDrillingEfficiency:
		return efficiencyTemplate(physics)
	case types.CategoryHydraulics:
		return hydraulicsTemplate(ticket, physics)
	case types.CategoryMechanical:
		return mechanicalTemplate(ticket, physics)
	case types.CategoryFormation:
		return formationTemplate(physics)
	default:
		return normalTemplate(physics)
	}
}

func wellControlTemplate(ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport, campaign types.Campaign) templateText {
	m := ticket.CurrentMetrics
	campaignNote := ""
	if campaign == types.CampaignPlugAbandonment {
		campaignNote = " (P&A mode: tighter flow tolerance)"
	}
	return templateText{
		recommendation: fmt.Sprintf(
			"WELL CONTROL: Verify flow balance and pit levels immediately%s. "+
				"Flow imbalance %.1f bbl/hr, pit rate %.1f bbl/hr. "+
				"Check trip tank, confirm flow out reading, prepare for shut-in if trend continues. "+
				"Current mud weight %.1f ppg, ECD %.1f ppg at %.0f ft.",
			campaignNote, m.FlowBalance, m.PitRate, physics.CurrentMudWeight, physics.CurrentECD, physics.CurrentDepth),
		expectedBenefit: "Well control incident prevention — immediate safety priority",
		reasoning: fmt.Sprintf(
			"Flow imbalance of %.1f bbl/hr detected with pit rate %.1f bbl/hr. "+
				"ECD margin: %.2f ppg. Flow balance trend: %.1f bbl/hr per sample. "+
				"Gas reading: %.0f units. Confidence limited — template-based analysis.",
			m.FlowBalance, m.PitRate, m.ECDMargin, physics.FlowBalanceTrend, physics.CurrentGas),
	}
}

func efficiencyTemplate(physics types.DrillingPhysicsReport) templateText {
	eff := physics.MSEEfficiency
	trendDir := "stable/improving"
	if physics.MSETrend > 0 {
		trendDir = "increasing (worsening)"
	}

	var action string
	if eff < 50 {
		action = fmt.Sprintf(
			"Significant efficiency loss. Reduce WOB by 5 klbs or increase RPM by 10-15. "+
				"Current WOB %.0f klbs, RPM %.0f. Target MSE: %.0f psi.",
			physics.CurrentWOB, physics.CurrentRPM, physics.OptimalMSE)
	} else {
		action = fmt.Sprintf(
			"Consider fine-tuning WOB/RPM combination. Current efficiency %.0f%%. "+
				"Current WOB %.0f klbs, RPM %.0f, ROP %.1f ft/hr.",
			eff, physics.CurrentWOB, physics.CurrentRPM, physics.CurrentROP)
	}

	benefit := 100 - eff
	if benefit > 30 {
		benefit = 30
	}

	return templateText{
		recommendation:  action,
		expectedBenefit: fmt.Sprintf("Potential %.0f%% efficiency improvement, reduced bit wear, improved ROP", benefit),
		reasoning: fmt.Sprintf(
			"MSE %s: avg %.0f psi vs optimal %.0f psi (%.0f%% efficiency). "+
				"Torque %.1f kft-lb at %.0f ft depth. Formation hardness %.1f/10.",
			trendDir, physics.AvgMSE, physics.OptimalMSE, eff, physics.CurrentTorque, physics.CurrentDepth, physics.FormationHardness),
	}
}

func hydraulicsTemplate(ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport) templateText {
	m := ticket.CurrentMetrics
	sppDelta, ecd := m.SPPDelta, m.ECDMargin

	var action string
	switch {
	case ecd < 0.3:
		action = fmt.Sprintf(
			"ECD margin critically low at %.2f ppg. Reduce flow rate or ROP immediately. "+
				"SPP %.0f psi, flow in %.0f gpm.",
			ecd, physics.CurrentSPP, physics.CurrentFlowIn)
	case absF(sppDelta) > 100:
		action = fmt.Sprintf(
			"SPP deviation %.0f psi — check for washout (drop) or pack-off (rise). "+
				"Current SPP %.0f psi, flow %.0f gpm. Monitor over next 5 minutes.",
			sppDelta, physics.CurrentSPP, physics.CurrentFlowIn)
	default:
		action = fmt.Sprintf(
			"Monitor standpipe pressure and flow rates. SPP deviation %.0f psi, "+
				"ECD margin %.2f ppg. No immediate action required.",
			sppDelta, ecd)
	}

	return templateText{
		recommendation:  action,
		expectedBenefit: "Hydraulic efficiency optimization, equipment damage prevention",
		reasoning: fmt.Sprintf(
			"Flow balance trend: %.1f bbl/hr per sample. ECD margin: %.2f ppg. "+
				"SPP delta: %.0f psi. Mud weight in %.1f ppg, ECD %.1f ppg.",
			physics.FlowBalanceTrend, ecd, sppDelta, physics.CurrentMudWeight, physics.CurrentECD),
	}
}

func mechanicalTemplate(ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport) templateText {
	torqueDelta := ticket.CurrentMetrics.TorqueDeltaPercent

	var action string
	switch {
	case physics.FounderDetected:
		action = fmt.Sprintf(
			"FOUNDER CONDITION: WOB exceeds optimal (%.0f klbs, optimal ~%.0f klbs). "+
				"ROP no longer responding to WOB increases. Reduce WOB by 5-10 klbs.",
			physics.CurrentWOB, physics.OptimalWOBEstimate)
	case torqueDelta > 0.15:
		action = fmt.Sprintf(
			"Torque elevated %.0f%% above baseline (%.1f kft-lb). "+
				"Monitor for pack-off. Consider backreaming if torque continues to rise. "+
				"Reduce WOB if stick-slip develops.",
			torqueDelta*100, physics.CurrentTorque)
	default:
		action = fmt.Sprintf(
			"Mechanical parameter deviation detected. Torque %.1f kft-lb (delta %.0f%%). "+
				"Continue monitoring torque and drag trends.",
			physics.CurrentTorque, torqueDelta*100)
	}

	return templateText{
		recommendation:  action,
		expectedBenefit: "Pack-off/stick-slip prevention, reduced NPT risk",
		reasoning: fmt.Sprintf(
			"Torque delta %.0f%% at %.0f ft. WOB %.0f klbs, RPM %.0f. "+
				"Founder detected: %t. Current ROP %.1f ft/hr.",
			torqueDelta*100, physics.CurrentDepth, physics.CurrentWOB, physics.CurrentRPM, physics.FounderDetected, physics.CurrentROP),
	}
}

func formationTemplate(physics types.DrillingPhysicsReport) templateText {
	dxcTrend, hardness := physics.DxcTrend, physics.FormationHardness

	var action string
	switch {
	case dxcTrend < -0.1:
		action = fmt.Sprintf(
			"D-exponent DECREASING (%.3f) — possible abnormal pore pressure. "+
				"Monitor mud weight vs pore pressure closely. Consider increasing mud weight. "+
				"Current depth %.0f ft, formation hardness %.1f/10.",
			dxcTrend, physics.CurrentDepth, hardness)
	case absF(dxcTrend) > 0.05:
		dir := "softer"
		if dxcTrend > 0 {
			dir = "harder"
		}
		action = fmt.Sprintf(
			"Formation transition detected — drilling into %s rock. "+
				"Adjust WOB/RPM for new formation. D-exponent trend %.3f at %.0f ft.",
			dir, dxcTrend, physics.CurrentDepth)
	default:
		action = fmt.Sprintf(
			"Formation change indicated. D-exponent trend %.3f, hardness %.1f/10. "+
				"Continue with current parameters, monitor ROP response.",
			dxcTrend, hardness)
	}

	return templateText{
		recommendation:  action,
		expectedBenefit: "Optimized drilling through formation transition, pore pressure awareness",
		reasoning: fmt.Sprintf(
			"D-exponent trend: %.3f. Formation hardness: %.1f/10. "+
				"MSE efficiency: %.0f%%. Current ROP: %.1f ft/hr at %.0f ft.",
			dxcTrend, hardness, physics.MSEEfficiency, physics.CurrentROP, physics.CurrentDepth),
	}
}

func normalTemplate(physics types.DrillingPhysicsReport) templateText {
	return templateText{
		recommendation: fmt.Sprintf(
			"Continue monitoring drilling parameters. ROP %.1f ft/hr, "+
				"efficiency %.0f%% at %.0f ft.",
			physics.CurrentROP, physics.MSEEfficiency, physics.CurrentDepth),
		expectedBenefit: "Maintained operational efficiency",
		reasoning:       "Normal drilling operations — periodic summary.",
	}
}

// formatOptimizationAdvisory slot-fills the optimizer's recommendation
// list into a single operator-facing string, grounded on
// original_source/src/optimization/templates.rs.
func formatOptimizationAdvisory(adv types.OptimizationAdvisory) string {
	if len(adv.Recommendations) == 0 {
		return fmt.Sprintf("No parameter changes recommended in %s (MSE efficiency %.0f%%, ROP ratio %.2f).",
			adv.Formation, adv.MSEEfficiency, adv.ROPRatio)
	}
	lines := fmt.Sprintf("Parameter optimization for %s (MSE efficiency %.0f%%, confidence %d%%):\n",
		adv.Formation, adv.MSEEfficiency, adv.Confidence.Percent())
	for _, rec := range adv.Recommendations {
		lines += fmt.Sprintf("- %s: %.1f → %.1f (impact %.2f). %s\n",
			rec.Parameter, rec.CurrentValue, rec.RecommendedValue, rec.ExpectedImpact, rec.Evidence)
	}
	return lines
}

// formatLookAheadAdvisory slot-fills a standalone look-ahead advisory.
func formatLookAheadAdvisory(la types.LookAheadAdvisory) string {
	text := fmt.Sprintf("Approaching %s formation in %.0f minutes (%.0f ft remaining).",
		la.FormationName, la.EstimatedMinutes, la.DepthRemainingFt)
	for _, change := range la.ParameterChanges {
		text += " " + change + "."
	}
	if len(la.Hazards) > 0 {
		text += fmt.Sprintf(" Hazards: %v.", la.Hazards)
	}
	if la.OffsetNotes != "" {
		text += " Offset notes: " + la.OffsetNotes
	}
	return text
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
