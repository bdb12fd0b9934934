package optimizer

import (
	"fmt"
	"math"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// LookAheadThresholdMinutes is the estimated time-to-next-formation
// below which a look-ahead advisory fires.
const LookAheadThresholdMinutes = 30.0

const (
	wobSignificanceKlbs = 1.0
	rpmSignificance     = 5.0
	flowSignificanceGPM = 10.0
)

// CheckLookAhead reports whether the bit is approaching a formation
// boundary within LookAheadThresholdMinutes and, if so, builds the
// pre-alert advisory.
func CheckLookAhead(prognosis types.FormationPrognosis, currentDepthFt, currentROPFtHr float64, currentFormation types.FormationInterval) *types.LookAheadAdvisory {
	if currentROPFtHr <= 0 {
		return nil
	}

	next, ok := prognosis.NextFormationAfter(currentDepthFt)
	if !ok {
		return nil
	}

	depthRemaining := next.DepthTopFt - currentDepthFt
	if depthRemaining <= 0 {
		return nil
	}

	hoursToNext := depthRemaining / currentROPFtHr
	minutesToNext := hoursToNext * 60
	if minutesToNext > LookAheadThresholdMinutes {
		return nil
	}

	var changes []string
	cur := currentFormation.Parameters
	nxt := next.Parameters

	if wobDelta := nxt.WOBKlbs.Optimal - cur.WOBKlbs.Optimal; math.Abs(wobDelta) > wobSignificanceKlbs {
		changes = append(changes, fmt.Sprintf("WOB: %.0f → %.0f klbs (%s by %.0f)",
			cur.WOBKlbs.Optimal, nxt.WOBKlbs.Optimal, direction(wobDelta), math.Abs(wobDelta)))
	}
	if rpmDelta := nxt.RPM.Optimal - cur.RPM.Optimal; math.Abs(rpmDelta) > rpmSignificance {
		changes = append(changes, fmt.Sprintf("RPM: %.0f → %.0f (%s by %.0f)",
			cur.RPM.Optimal, nxt.RPM.Optimal, direction(rpmDelta), math.Abs(rpmDelta)))
	}
	if flowDelta := nxt.FlowGPM.Optimal - cur.FlowGPM.Optimal; math.Abs(flowDelta) > flowSignificanceGPM {
		changes = append(changes, fmt.Sprintf("Flow: %.0f → %.0f GPM (%s by %.0f)",
			cur.FlowGPM.Optimal, nxt.FlowGPM.Optimal, direction(flowDelta), math.Abs(flowDelta)))
	}

	return &types.LookAheadAdvisory{
		FormationName:    next.Name,
		EstimatedMinutes: minutesToNext,
		DepthRemainingFt: depthRemaining,
		ParameterChanges: changes,
		Hazards:          next.Hazards,
		OffsetNotes:      next.OffsetPerformance.Notes,
	}
}

func direction(delta float64) string {
	if delta > 0 {
		return "increase"
	}
	return "decrease"
}
