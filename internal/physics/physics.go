// Package physics computes pure, stateless drilling-physics metrics
// from a single packet (optionally against a rolling baseline). No
// function here retains state between calls.
package physics

import (
	"math"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

const gpmToBblPerHr = 60.0 / 42.0

// finite replaces NaN/Inf with 0, per spec: all outputs are finite.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// MSE computes mechanical specific energy in psi.
// MSE = (4*WOB)/(pi*d^2) + (480*T*RPM)/(d^2*ROP); the rotary term drops
// out when ROP <= 0 (only the axial term is used).
func MSE(wob, rpm, torque, rop, bitDiameter float64) float64 {
	if bitDiameter <= 0 {
		return 0
	}
	d2 := bitDiameter * bitDiameter
	axial := (4 * wob) / (math.Pi * d2)
	if rop <= 0 {
		return finite(axial)
	}
	rotary := (480 * torque * rpm) / (d2 * rop)
	return finite(axial + rotary)
}

// DExponent computes the standard drillability index. Zero when ROP,
// RPM, or WOB are invalid (non-positive).
func DExponent(rop, rpm, wob, bitDiameter float64) float64 {
	if rop <= 0 || rpm <= 0 || wob <= 0 || bitDiameter <= 0 {
		return 0
	}
	num := math.Log10(rop / (60 * rpm))
	den := math.Log10((12 * wob) / (1000 * bitDiameter))
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

// Dxc corrects the d-exponent for mud weight / pore pressure, the
// "normalized" d-exponent used for pore-pressure trend analysis.
func Dxc(dExponent, mudWeight, porePressureGradient float64) float64 {
	if porePressureGradient <= 0 {
		return finite(dExponent)
	}
	return finite(dExponent * (porePressureGradient / mudWeight))
}

// FlowBalance returns (flow_out - flow_in) in bbl/hr, converting from
// gpm with the 60/42 factor.
func FlowBalance(flowInGPM, flowOutGPM float64) float64 {
	return finite((flowOutGPM - flowInGPM) * gpmToBblPerHr)
}

// ECDMargin returns fracture_gradient - ecd, in ppg.
func ECDMargin(fractureGradient, ecd float64) float64 {
	return finite(fractureGradient - ecd)
}

// MSEEfficiency returns 100*optimalMSE/max(avgMSE,1), clamped [0,100].
func MSEEfficiency(avgMSE, optimalMSE float64) float64 {
	denom := math.Max(avgMSE, 1)
	eff := 100 * optimalMSE / denom
	if eff < 0 {
		eff = 0
	}
	if eff > 100 {
		eff = 100
	}
	return finite(eff)
}

// FounderConfig tunes the founder-detection heuristic. The numeric
// cutoffs have no principled value in the source material; they are
// left as configurable per the open question in DESIGN.md.
type FounderConfig struct {
	WOBSlopeMin float64 // minimum upward WOB slope (klbs/sample) to consider founder
	ROPSlopeMax float64 // maximum ROP slope (ft/hr per sample) still considered "flat or down"
}

// DefaultFounderConfig reproduces the original_source optimizer test
// fixture's behavior (WOB ~30 vs optimal ~25 flags founder).
func DefaultFounderConfig() FounderConfig {
	return FounderConfig{WOBSlopeMin: 0.05, ROPSlopeMax: 0.02}
}

// DetectFounder examines a rolling window of (WOB, ROP) samples,
// oldest first, and reports whether WOB is trending up while ROP stays
// flat or declines — the hallmark of bit founder. Severity scales with
// how far the WOB slope exceeds the minimum.
func DetectFounder(wobSeries, ropSeries []float64, cfg FounderConfig) (detected bool, severity float64) {
	n := len(wobSeries)
	if n < 3 || len(ropSeries) != n {
		return false, 0
	}
	wobSlope := linearSlope(wobSeries)
	ropSlope := linearSlope(ropSeries)
	if wobSlope > cfg.WOBSlopeMin && ropSlope <= cfg.ROPSlopeMax {
		sev := (wobSlope - cfg.WOBSlopeMin) / math.Max(cfg.WOBSlopeMin, 1e-6)
		if sev > 1 {
			sev = 1
		}
		return true, finite(sev)
	}
	return false, 0
}

// linearSlope fits an ordinary least-squares line to the series
// against its sample index and returns the slope.
func linearSlope(series []float64) float64 {
	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// OptimalWOBEstimate gives a rough safe WOB estimate once founder is
// detected: the WOB at the start of the founder window, which was
// still efficient.
func OptimalWOBEstimate(wobSeries []float64, founderDetected bool) float64 {
	if !founderDetected || len(wobSeries) == 0 {
		return 0
	}
	return wobSeries[0]
}

// Report rolls up the current-value snapshot plus trend/efficiency
// fields into a DrillingPhysicsReport. History is oldest-first.
func Report(current types.WitsPacket, history []types.HistoryEntry, optimalMSE, formationHardness float64, founderCfg FounderConfig) types.DrillingPhysicsReport {
	r := types.DrillingPhysicsReport{
		CurrentDepth:     current.BitDepth,
		CurrentROP:       current.ROP,
		CurrentWOB:       current.WOB,
		CurrentRPM:       current.RPM,
		CurrentTorque:    current.Torque,
		CurrentSPP:       current.SPP,
		CurrentFlowIn:    current.FlowIn,
		CurrentFlowOut:   current.FlowOut,
		CurrentMudWeight: current.MudWeightIn,
		CurrentECD:       current.ECD,
		CurrentGas:       current.GasUnits,
		CurrentPitVolume: current.PitVolume,
		OptimalMSE:       optimalMSE,
		FormationHardness: formationHardness,
	}

	mseSeries := make([]float64, 0, len(history)+1)
	dxcSeries := make([]float64, 0, len(history)+1)
	flowSeries := make([]float64, 0, len(history)+1)
	wobSeries := make([]float64, 0, len(history)+1)
	ropSeries := make([]float64, 0, len(history)+1)
	for _, h := range history {
		mseSeries = append(mseSeries, h.Metrics.MSE)
		dxcSeries = append(dxcSeries, h.Metrics.Dxc)
		flowSeries = append(flowSeries, h.Metrics.FlowBalance)
		wobSeries = append(wobSeries, h.Packet.WOB)
		ropSeries = append(ropSeries, h.Packet.ROP)
	}
	currentMSE := MSE(current.WOB, current.RPM, current.Torque, current.ROP, current.BitDiameter)
	mseSeries = append(mseSeries, currentMSE)
	dxcSeries = append(dxcSeries, current.Dxc)
	flowSeries = append(flowSeries, FlowBalance(current.FlowIn, current.FlowOut))
	wobSeries = append(wobSeries, current.WOB)
	ropSeries = append(ropSeries, current.ROP)

	r.AvgMSE = mean(mseSeries)
	r.MSEEfficiency = MSEEfficiency(r.AvgMSE, optimalMSE)
	r.MSETrend = linearSlope(mseSeries)
	r.DxcTrend = linearSlope(dxcSeries)
	r.FlowBalanceTrend = linearSlope(flowSeries)

	detected, severity := DetectFounder(wobSeries, ropSeries, founderCfg)
	r.FounderDetected = detected
	r.FounderSeverity = severity
	r.OptimalWOBEstimate = OptimalWOBEstimate(wobSeries, detected)

	return r
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return finite(sum / float64(len(series)))
}
