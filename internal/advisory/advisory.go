package advisory

import (
	"context"
	"strings"
	"time"

	"github.com/ashton-dyke/SAIREN-OS-sub000/infra/breakers"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/llm"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// defaultBackendTimeout is spec.md §5's default completion deadline.
const defaultBackendTimeout = 3 * time.Second

// Composer merges a verified ticket, the physics report, optional
// optimizer output, and knowledge-base snippets into a
// types.StrategicAdvisory (spec.md §4.8), preferring an LLM backend
// when one is configured and falling back to deterministic templates
// when it is absent, slow, or returns garbage.
type Composer struct {
	backend llm.Backend
	breaker *breakers.Breaker
	timeout time.Duration
}

// NewComposer builds a composer. backend may be nil, in which case
// every advisory is template-composed.
func NewComposer(backend llm.Backend) *Composer {
	return &Composer{
		backend: backend,
		breaker: breakers.New("llm-backend"),
		timeout: defaultBackendTimeout,
	}
}

// Compose builds the strategic advisory for a confirmed ticket.
// campaign selects the prompt template; kbSnippets are capped to 3
// entries before use, per spec.md §4.8. The advisory's timestamp is
// ticket.Timestamp — the triggering packet's time, not wall clock —
// so ordering stays monotonic with packet arrival during replay.
func (c *Composer) Compose(ctx context.Context, ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport, campaign types.Campaign, kbSnippets []string) types.StrategicAdvisory {
	if len(kbSnippets) > 3 {
		kbSnippets = kbSnippets[:3]
	}

	var rec, benefit, reasoning string
	var confidence float64
	var source string

	if parsed, ok := c.tryBackend(ctx, ticket, physics, campaign, kbSnippets); ok {
		rec, benefit, reasoning = parsed.Recommendation, parsed.ExpectedBenefit, parsed.Reasoning
		confidence = float64(parsed.Confidence) / 100.0
		source = "llm"
	} else {
		t := renderTemplate(ticket, physics, campaign)
		rec, benefit, reasoning = t.recommendation, t.expectedBenefit, t.reasoning
		confidence = templateConfidence
		source = "template"
	}

	return types.StrategicAdvisory{
		Timestamp:       ticket.Timestamp,
		EfficiencyScore: uint8(clampPercent(physics.MSEEfficiency)),
		RiskLevel:       riskFromSeverity(ticket.Severity),
		Severity:        finalSeverityOf(ticket.Severity),
		Recommendation:  rec,
		ExpectedBenefit: benefit,
		Reasoning:       reasoning,
		Votes:           ticket.TraceLog,
		PhysicsReport:   physics,
		ContextUsed:     kbSnippets,
		TraceLog:        ticket.TraceLog,
		Category:        ticket.Category,
		TriggerParameter: ticket.TriggerParameter,
		TriggerValue:    ticket.TriggerValue,
		ThresholdValue:  ticket.ThresholdValue,
		Confidence:      confidence,
		Source:          source,
	}
}

// tryBackend attempts the LLM path, circuit-broken and bounded by
// c.timeout. Any failure (no backend, breaker open, timeout, garbage
// reply) returns ok=false so the caller falls through to templates.
func (c *Composer) tryBackend(ctx context.Context, ticket *types.AdvisoryTicket, physics types.DrillingPhysicsReport, campaign types.Campaign, kbSnippets []string) (llm.ParsedAdvisory, bool) {
	if c.backend == nil {
		return llm.ParsedAdvisory{}, false
	}

	prompt := buildPrompt(ticket, physics, kbSnippets, campaign)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (any, error) {
		return c.backend.Complete(callCtx, prompt)
	})
	if err != nil {
		return llm.ParsedAdvisory{}, false
	}
	reply, ok := result.(string)
	if !ok || reply == "" {
		return llm.ParsedAdvisory{}, false
	}
	// A reply without a RECOMMENDATION line is treated as garbage.
	if !strings.Contains(strings.ToUpper(reply), "RECOMMENDATION:") {
		return llm.ParsedAdvisory{}, false
	}
	return llm.ParseResponse(reply), true
}

// ComposeOptimization renders an optimizer advisory's text fields into
// a StrategicAdvisory tagged source = "optimization_engine". Timestamp
// comes from the triggering packet, not wall clock, for the same
// replay-determinism reason as Compose.
func ComposeOptimization(adv types.OptimizationAdvisory, packetTimestamp int64) types.StrategicAdvisory {
	return types.StrategicAdvisory{
		Timestamp:       packetTimestamp,
		EfficiencyScore: uint8(clampPercent(adv.MSEEfficiency)),
		RiskLevel:       types.RiskLow,
		Severity:        types.FinalLow,
		Recommendation:  formatOptimizationAdvisory(adv),
		ExpectedBenefit: "Parameter optimization within safe operating range",
		Reasoning:       formatOptimizationAdvisory(adv),
		Category:        types.CategoryNone,
		Confidence:      float64(adv.Confidence.Percent()) / 100.0,
		Source:          adv.Source,
	}
}

// ComposeLookAhead renders a standalone look-ahead advisory, used when
// a formation-transition pre-alert fires independently of the
// optimizer's own recommendation cycle. Timestamp comes from the
// triggering packet, not wall clock, for the same replay-determinism
// reason as Compose.
func ComposeLookAhead(la types.LookAheadAdvisory, packetTimestamp int64) types.StrategicAdvisory {
	return types.StrategicAdvisory{
		Timestamp:       packetTimestamp,
		EfficiencyScore: 0,
		RiskLevel:       types.RiskLow,
		Severity:        types.FinalLow,
		Recommendation:  formatLookAheadAdvisory(la),
		ExpectedBenefit: "Advance preparation for formation transition",
		Reasoning:       formatLookAheadAdvisory(la),
		Category:        types.CategoryFormation,
		Confidence:      0.70,
		Source:          "lookahead",
	}
}

func riskFromSeverity(s types.TicketSeverity) types.RiskLevel {
	switch s {
	case types.SeverityCritical:
		return types.RiskCritical
	case types.SeverityHigh:
		return types.RiskHigh
	case types.SeverityMedium:
		return types.RiskElevated
	default:
		return types.RiskLow
	}
}

func finalSeverityOf(s types.TicketSeverity) types.FinalSeverity {
	switch s {
	case types.SeverityCritical:
		return types.FinalCritical
	case types.SeverityHigh:
		return types.FinalHigh
	case types.SeverityMedium:
		return types.FinalMedium
	default:
		return types.FinalLow
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
