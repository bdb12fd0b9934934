package llm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

var (
	typeRe           = regexp.MustCompile(`(?i)TYPE:\s*(.+?)\s*(?:\n|$)`)
	confidenceRe     = regexp.MustCompile(`(?i)CONFIDENCE:\s*(\d+)\s*%?`)
	recommendationRe = regexp.MustCompile(`(?i)RECOMMENDATION:\s*(.+?)\s*(?:\n|$)`)
	benefitRe        = regexp.MustCompile(`(?i)EXPECTED BENEFIT:\s*(.+?)\s*(?:\n|$)`)
	reasoningRe      = regexp.MustCompile(`(?i)REASONING:\s*(.+?)\s*(?:\n|$)`)
)

// ParsedAdvisory is a completion reply broken into five of the labeled
// fields the prompt requests (TYPE, CONFIDENCE, RECOMMENDATION,
// EXPECTED BENEFIT, REASONING), with defaults substituted for any field
// the reply omitted or mangled. The PRIORITY line is not read.
type ParsedAdvisory struct {
	TicketType      types.TicketType
	Confidence      uint8
	Recommendation  string
	ExpectedBenefit string
	Reasoning       string
}

// ParseResponse tolerantly extracts the five ParsedAdvisory fields from
// a raw completion; a PRIORITY line in the reply is ignored. It never errors — an unparseable reply yields a
// ParsedAdvisory built entirely from defaults.
func ParseResponse(response string) ParsedAdvisory {
	typeStr := firstMatch(typeRe, response)
	ticketType := types.TicketRiskWarning
	upper := strings.ToUpper(typeStr)
	switch {
	case strings.Contains(upper, "OPTIMIZATION"):
		ticketType = types.TicketOptimization
	case strings.Contains(upper, "INTERVENTION"):
		ticketType = types.TicketIntervention
	}

	confidence := uint8(70)
	if m := confidenceRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			if v > 100 {
				v = 100
			}
			if v < 0 {
				v = 0
			}
			confidence = uint8(v)
		}
	}

	recommendation := firstMatchOr(recommendationRe, response, "Monitor situation and verify parameters.")
	benefit := firstMatchOr(benefitRe, response, "Risk mitigation")
	reasoning := firstMatchOr(reasoningRe, response, "Based on drilling parameter analysis.")

	return ParsedAdvisory{
		TicketType:      ticketType,
		Confidence:      confidence,
		Recommendation:  recommendation,
		ExpectedBenefit: benefit,
		Reasoning:       reasoning,
	}
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstMatchOr(re *regexp.Regexp, s, fallback string) string {
	if v := firstMatch(re, s); v != "" {
		return v
	}
	return fallback
}
