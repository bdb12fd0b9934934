// Package causal detects which drilling parameters causally precede
// MSE changes within the recent history buffer, using lagged Pearson
// correlation. Ported from the prior implementation's causal module.
package causal

import (
	"math"
	"sort"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// MinCorrelation is the minimum |r| to report a causal lead.
const MinCorrelation = 0.45

// MaxLagSecs is the maximum lag tested, in seconds (== packets at 1 Hz).
const MaxLagSecs = 20

// MinHistory is the minimum history length required to run analysis.
const MinHistory = 20

// MaxLeads is the maximum number of causal leads returned.
const MaxLeads = 3

type candidate struct {
	param  types.DrillingParameter
	series func(types.WitsPacket) float64
}

var candidates = []candidate{
	{types.ParamWOB, func(p types.WitsPacket) float64 { return p.WOB }},
	{types.ParamRPM, func(p types.WitsPacket) float64 { return p.RPM }},
	{types.ParamTorque, func(p types.WitsPacket) float64 { return p.Torque }},
	{types.ParamSPP, func(p types.WitsPacket) float64 { return p.SPP }},
	{types.ParamROP, func(p types.WitsPacket) float64 { return p.ROP }},
}

// DetectLeads returns up to MaxLeads causal leads for MSE changes,
// sorted by |r| descending. Returns nil when history is too short.
func DetectLeads(history []types.HistoryEntry) []types.CausalLead {
	if len(history) < MinHistory {
		return nil
	}

	maxLag := MaxLagSecs
	if len(history)/3 < maxLag {
		maxLag = len(history) / 3
	}

	mse := make([]float64, len(history))
	for i, h := range history {
		mse[i] = h.Metrics.MSE
	}

	var leads []types.CausalLead
	for _, c := range candidates {
		series := make([]float64, len(history))
		for i, h := range history {
			series[i] = c.series(h.Packet)
		}
		lag, r := bestLaggedCorrelation(series, mse, maxLag)
		if abs(r) >= MinCorrelation {
			sign := 1
			if r < 0 {
				sign = -1
			}
			leads = append(leads, types.CausalLead{
				Parameter:       c.param,
				LagSeconds:      lag,
				PearsonR:        r,
				CorrelationSign: sign,
			})
		}
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return abs(leads[i].PearsonR) > abs(leads[j].PearsonR)
	})
	if len(leads) > MaxLeads {
		leads = leads[:MaxLeads]
	}
	return leads
}

// bestLaggedCorrelation finds the lag in [1, maxLag] maximizing |r|
// between x[0:n-lag] (cause) and mse[lag:n] (effect).
func bestLaggedCorrelation(x, mse []float64, maxLag int) (bestLag int, bestR float64) {
	for lag := 1; lag <= maxLag; lag++ {
		if lag >= len(x) {
			break
		}
		cause := x[:len(x)-lag]
		effect := mse[lag:]
		r := pearsonR(cause, effect)
		if abs(r) > abs(bestR) {
			bestR = r
			bestLag = lag
		}
	}
	return bestLag, bestR
}

// pearsonR computes the Pearson correlation coefficient for two
// equal-length (post-truncation) series. Returns 0 for fewer than 3
// points or zero-variance input.
func pearsonR(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 3 {
		return 0
	}
	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var num, denX, denY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		denX += dx * dx
		denY += dy * dy
	}
	denom := math.Sqrt(denX * denY)
	if denom < 1e-10 {
		return 0
	}
	return num / denom
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
