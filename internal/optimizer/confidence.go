package optimizer

import (
	"math"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// ScoreConfidence computes the optimizer's 5-factor confidence
// breakdown. Ground truth: offset wells 30%, parameter gap 25%, trend
// consistency 20%, sensor quality 15%, CfC agreement 10% (applied by
// ConfidenceBreakdown.Percent, not here).
func ScoreConfidence(formation types.FormationInterval, physics types.DrillingPhysicsReport, history []types.HistoryEntry, cfcAnomalyScore *float64, sensorQuality float64) types.ConfidenceBreakdown {
	return types.ConfidenceBreakdown{
		OffsetWells:      scoreOffsetWells(formation),
		ParameterGap:     scoreParameterGap(formation, physics),
		TrendConsistency: scoreTrendConsistency(history),
		SensorQuality:    clamp01(sensorQuality),
		CfCAgreement:     scoreCfCAgreement(cfcAnomalyScore),
	}
}

// scoreOffsetWells: 0 wells=0.0, 1=0.4, 2=0.7, 3+=1.0.
func scoreOffsetWells(formation types.FormationInterval) float64 {
	switch len(formation.OffsetPerformance.Wells) {
	case 0:
		return 0.0
	case 1:
		return 0.4
	case 2:
		return 0.7
	default:
		return 1.0
	}
}

// scoreParameterGap averages the normalized distance from optimal
// across WOB/RPM/flow. Larger gaps score higher — more room to
// improve.
func scoreParameterGap(formation types.FormationInterval, physics types.DrillingPhysicsReport) float64 {
	params := formation.Parameters
	gaps := [3]float64{
		normalizedGap(physics.CurrentWOB, params.WOBKlbs),
		normalizedGap(physics.CurrentRPM, params.RPM),
		normalizedGap(physics.CurrentFlowIn, params.FlowGPM),
	}
	avg := (gaps[0] + gaps[1] + gaps[2]) / 3
	return clamp01(avg)
}

func normalizedGap(current float64, r types.ParameterRange) float64 {
	span := math.Abs(r.Max - r.Min)
	if span < 1e-6 {
		span = 1e-6
	}
	distance := math.Abs(current - r.Optimal)
	return clamp01(distance / span)
}

// scoreTrendConsistency checks the last 10 history entries for
// sustained underperformance (mse_efficiency < 70). Fewer than 5
// entries scores a flat 0.3.
func scoreTrendConsistency(history []types.HistoryEntry) float64 {
	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	if len(recent) < 5 {
		return 0.3
	}
	low := 0
	for _, h := range recent {
		if h.Metrics.MSEEfficiency < 70 {
			low++
		}
	}
	return clamp01(float64(low) / float64(len(recent)))
}

// scoreCfCAgreement: low anomaly score means CfC agrees conditions are
// stable.
func scoreCfCAgreement(score *float64) float64 {
	if score == nil {
		return 0.5
	}
	switch {
	case *score < 0.3:
		return 1.0
	case *score < 0.5:
		return 0.7
	case *score < 0.7:
		return 0.3
	default:
		return 0.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
