package optimizer

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// Gating constants, ported verbatim.
const (
	MinConfidencePercent   = 60
	EvaluateEveryNPackets  = 10
	MinHistoryEntries      = 10
	CfCAnomalyThreshold    = 0.7
)

// Engine is the stateful parameter optimizer: a packet counter (for
// the every-N-packets rate gate) plus a per-parameter RateLimiter.
type Engine struct {
	mu            sync.Mutex
	rateLimiter   *RateLimiter
	packetCounter uint64
	lastAdvisory  *types.OptimizationAdvisory
}

// NewEngine creates an optimizer whose rate limiter uses the given
// cooldown in seconds.
func NewEngine(cooldownSecs int) *Engine {
	return &Engine{rateLimiter: NewRateLimiter(cooldownSecs)}
}

// LastAdvisory returns the most recently produced advisory, if any.
func (e *Engine) LastAdvisory() *types.OptimizationAdvisory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAdvisory
}

// Evaluate runs the gated evaluation sequence (spec.md §4.7) and
// either returns an advisory or a skip reason naming why it declined.
func (e *Engine) Evaluate(
	packet types.WitsPacket,
	physics types.DrillingPhysicsReport,
	formation types.FormationInterval,
	prognosis types.FormationPrognosis,
	history []types.HistoryEntry,
	cfcAnomalyScore *float64,
	sensorQuality float64,
) (*types.OptimizationAdvisory, types.OptimizationSkipReason, bool) {
	e.mu.Lock()
	e.packetCounter++
	counter := e.packetCounter
	e.mu.Unlock()

	// 1. Rate gate — evaluate only every N packets.
	if counter%EvaluateEveryNPackets != 0 {
		return nil, types.SkipRateLimited, false
	}

	// 2. CfC anomaly gate.
	if cfcAnomalyScore != nil && *cfcAnomalyScore > CfCAnomalyThreshold {
		return nil, types.SkipAnomalyActive, false
	}

	// 3. Rig state gate.
	if packet.RigState != types.RigDrilling {
		return nil, types.SkipNotDrilling, false
	}

	// 4. History gate.
	if len(history) < MinHistoryEntries {
		return nil, types.SkipInsufficientHistory, false
	}

	// 5. MSE efficiency vs formation offset data.
	mseEfficiency := physics.MSEEfficiency
	if formation.OffsetPerformance.AvgMSEPsi > 0 {
		mseEfficiency = math.Min(formation.OffsetPerformance.AvgMSEPsi/math.Max(physics.AvgMSE, 1)*100, 100)
	}

	// 6. ROP ratio.
	ropRatio := 1.0
	if formation.OffsetPerformance.BestROPFtHr > 0 {
		ropRatio = packet.ROP / formation.OffsetPerformance.BestROPFtHr
	}

	// 7. Per-parameter evaluation.
	var recommendations []types.ParameterRecommendation
	if rec, ok := evaluateParameter(types.ParamWOB, physics.CurrentWOB, formation.Parameters.WOBKlbs, formation.OffsetPerformance.BestParams.WOBKlbs, formation); ok {
		recommendations = append(recommendations, rec)
	}
	if rec, ok := evaluateParameter(types.ParamRPM, physics.CurrentRPM, formation.Parameters.RPM, formation.OffsetPerformance.BestParams.RPM, formation); ok {
		recommendations = append(recommendations, rec)
	}
	// Flow rate has no offset best_params; it targets the prognosis
	// optimal directly.
	if rec, ok := evaluateParameter(types.ParamFlowRate, physics.CurrentFlowIn, formation.Parameters.FlowGPM, formation.Parameters.FlowGPM.Optimal, formation); ok {
		recommendations = append(recommendations, rec)
	}

	// 8. Sort by expected impact descending.
	sortByImpactDesc(recommendations)

	// 9. Filter through the rate limiter.
	filtered := recommendations[:0:0]
	for _, rec := range recommendations {
		if e.rateLimiter.CanRecommend(rec.Parameter, rec.RecommendedValue) {
			filtered = append(filtered, rec)
		}
	}
	recommendations = filtered

	// 10. Confidence scoring.
	confidence := ScoreConfidence(formation, physics, history, cfcAnomalyScore, sensorQuality)
	if confidence.Percent() < MinConfidencePercent {
		return nil, types.SkipLowConfidence, false
	}

	// 11. Look-ahead.
	lookAhead := CheckLookAhead(prognosis, packet.BitDepth, packet.ROP, formation)

	// 12. Require at least one recommendation or a look-ahead.
	if len(recommendations) == 0 && lookAhead == nil {
		return nil, types.SkipLowConfidence, false
	}

	// 13. Record accepted recommendations against the rate limiter.
	for _, rec := range recommendations {
		e.rateLimiter.Record(rec.Parameter, rec.RecommendedValue)
	}

	advisory := &types.OptimizationAdvisory{
		Formation:       formation.Name,
		DepthFt:         packet.BitDepth,
		Recommendations: recommendations,
		Confidence:      confidence,
		ROPRatio:        ropRatio,
		MSEEfficiency:   mseEfficiency,
		LookAhead:       lookAhead,
		Source:          "optimization_engine",
	}

	e.mu.Lock()
	e.lastAdvisory = advisory
	e.mu.Unlock()

	return advisory, "", true
}

// evaluateParameter evaluates one drilling parameter against the
// prognosis range and offset-well data.
func evaluateParameter(param types.DrillingParameter, current float64, r types.ParameterRange, offsetBest float64, formation types.FormationInterval) (types.ParameterRecommendation, bool) {
	span := math.Abs(r.Max - r.Min)
	if span < 1e-6 {
		span = 1e-6
	}

	var recommended float64
	switch {
	case current < r.Min:
		recommended = r.Min
	case current > r.Max:
		recommended = r.Max
	default:
		target := r.Optimal
		if offsetBest >= r.Min && offsetBest <= r.Max {
			target = offsetBest
		}
		gap := math.Abs(current - target)
		if gap/span < 0.05 {
			return types.ParameterRecommendation{}, false
		}
		recommended = target
	}

	gap := math.Abs(current - recommended)
	expectedImpact := gap / span
	if expectedImpact > 1 {
		expectedImpact = 1
	}
	if expectedImpact < 0 {
		expectedImpact = 0
	}

	var evidence string
	if current < r.Min || current > r.Max {
		evidence = fmt.Sprintf("%s outside safe range [%.1f–%.1f] in %s", param, r.Min, r.Max, formation.Name)
	} else if wells := formation.OffsetPerformance.Wells; len(wells) == 0 {
		evidence = fmt.Sprintf("Prognosis optimal %.1f for %s in %s", r.Optimal, param, formation.Name)
	} else {
		evidence = fmt.Sprintf("Offset wells (%s) best: %.1f for %s in %s", strings.Join(wells, ", "), offsetBest, param, formation.Name)
	}

	return types.ParameterRecommendation{
		Parameter:        param,
		CurrentValue:     current,
		RecommendedValue: recommended,
		SafeMin:          r.Min,
		SafeMax:          r.Max,
		ExpectedImpact:   expectedImpact,
		Evidence:         evidence,
	}, true
}

func sortByImpactDesc(recs []types.ParameterRecommendation) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].ExpectedImpact > recs[j-1].ExpectedImpact; j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}
