package advisory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

const drillingAdvisoryPrompt = `You are the Strategic AI for rig operational intelligence.
Analyze WITS data and provide actionable drilling optimization advice.

### INPUT CONTEXT
%s
%s
### INPUT DATA
State: %s | Depth: %.0fft | ROP: %.1f ft/hr
WOB: %.1f klbs | RPM: %.0f | Torque: %.1f kft-lbs
MSE: %.0f psi (Optimal: %.0f, Efficiency: %.0f%%)
Flow In: %.0f gpm | Out: %.0f gpm | Balance: %.1f bbl/hr
MW: %.2f ppg | ECD: %.2f ppg | Margin: %.2f ppg
Gas: %.0f units | Pit Volume: %.1f bbl

### TRIGGER
Category: %s | Parameter: %s | Value: %.2f
%s
### INSTRUCTIONS
1. Analyze drilling parameters against operational limits.
2. If flow imbalance > 10 bbl/hr, prioritize well control assessment.
3. If MSE efficiency < 70%%, identify optimization opportunities.
4. Consider torque trends for mechanical issues.
5. Output ONLY the 6 lines below. No preamble. No markdown.

### OUTPUT FORMAT
TYPE: [OPTIMIZATION | RISK_WARNING | INTERVENTION]
PRIORITY: [LOW | MEDIUM | HIGH | CRITICAL]
CONFIDENCE: [0-100]%%
RECOMMENDATION: [Specific actionable advice with target values]
EXPECTED BENEFIT: [Quantified: ROP gain, cost savings, risk reduction]
REASONING: [Technical justification based on drilling physics]`

const paAdvisoryPrompt = `You are the Strategic AI for Plug & Abandonment operations.
Analyze WITS data and provide advice for cement operations and barrier integrity.

### CAMPAIGN: PLUG & ABANDONMENT
Focus areas: Cement placement, pressure testing, barrier verification, wellbore integrity

### INPUT CONTEXT
%s
%s
### INPUT DATA
State: %s | Depth: %.0fft
Pump Rate: %.0f gpm | Returns: %.0f gpm | Balance: %.1f bbl/hr
SPP: %.0f psi | MW: %.2f ppg | ECD: %.2f ppg | Margin: %.2f ppg
Pit Volume: %.1f bbl

### TRIGGER
Category: %s | Parameter: %s | Value: %.2f
%s
### P&A SPECIFIC INSTRUCTIONS
1. Monitor cement returns — expect returns during cement placement.
2. Track pressure behavior during cement setting.
3. Verify barrier integrity through pressure testing.
4. Watch for fluid migration or gas channeling.
5. Output ONLY the 6 lines below. No preamble. No markdown.

### OUTPUT FORMAT
TYPE: [CEMENT_PLACEMENT | PRESSURE_TEST | BARRIER_VERIFICATION | RISK_WARNING]
PRIORITY: [LOW | MEDIUM | HIGH | CRITICAL]
CONFIDENCE: [0-100]%%
RECOMMENDATION: [Specific P&A operational advice]
EXPECTED BENEFIT: [Barrier integrity, regulatory compliance, safety]
REASONING: [Technical justification for P&A operations]`

// buildPrompt interpolates the campaign-specific template (spec.md
// §4.8 step 1) with the ticket's metrics and physics report.
func buildPrompt(ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport, kbSnippets []string, campaign types.Campaign) string {
	contextStr := "No historical context available."
	if len(kbSnippets) > 0 {
		contextStr = strings.Join(kbSnippets, "\n")
	}

	traceStr := ""
	if len(ticket.TraceLog) > 0 {
		traceStr = fmt.Sprintf("\n### VERIFICATION TRACE\n%s\n", strings.Join(ticket.TraceLog, "\n"))
	}

	tacticalSection := contextSection(ticket)

	m := ticket.CurrentMetrics
	if campaign == types.CampaignPlugAbandonment {
		return fmt.Sprintf(paAdvisoryPrompt,
			contextStr, traceStr,
			m.State, physics.CurrentDepth,
			physics.CurrentFlowIn, physics.CurrentFlowOut, m.FlowBalance,
			physics.CurrentSPP, physics.CurrentMudWeight, physics.CurrentECD, m.ECDMargin,
			physics.CurrentPitVolume,
			ticket.Category, ticket.TriggerParameter, ticket.TriggerValue,
			tacticalSection)
	}

	return fmt.Sprintf(drillingAdvisoryPrompt,
		contextStr, traceStr,
		m.State, physics.CurrentDepth, physics.CurrentROP,
		physics.CurrentWOB, physics.CurrentRPM, physics.CurrentTorque,
		m.MSE, physics.OptimalMSE, m.MSEEfficiency,
		physics.CurrentFlowIn, physics.CurrentFlowOut, m.FlowBalance,
		physics.CurrentMudWeight, physics.CurrentECD, m.ECDMargin,
		physics.CurrentGas, physics.CurrentPitVolume,
		ticket.Category, ticket.TriggerParameter, ticket.TriggerValue,
		tacticalSection)
}

// contextSection renders the fired-threshold and CfC-anomaly sections
// a reviewer would want alongside the raw numbers.
func contextSection(ticket *types.AdvisoryTicket) string {
	var b strings.Builder
	if ticket.Context != nil && len(ticket.Context.FiredThresholds) > 0 {
		b.WriteString("\n### TACTICAL CONTEXT\n")
		names := make([]string, 0, len(ticket.Context.FiredThresholds))
		for k := range ticket.Context.FiredThresholds {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  - %s: %.3f\n", name, ticket.Context.FiredThresholds[name]))
		}
	}
	if ticket.CfCAnomalyScore != nil {
		b.WriteString(fmt.Sprintf("\n### CfC NEURAL NETWORK\nAnomaly Score: %.2f/1.00 | Health: %.2f/1.00\n",
			*ticket.CfCAnomalyScore, 1.0-*ticket.CfCAnomalyScore))
		for i, s := range ticket.FeatureSurprise {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("  - %s\n", s))
		}
	}
	return b.String()
}
