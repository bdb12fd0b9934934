// Package tactical implements the per-packet classifier: it derives
// drilling metrics via the physics engine, feeds the baseline and ACI
// trackers, and runs the fixed priority classification ladder that
// raises (or withholds) a candidate advisory ticket. Structurally
// generalized from the teacher's internal/regime majority-vote ladder
// into a first-match-wins priority ladder (spec.md §4.5 requires
// strict priority, not voting).
package tactical

import (
	"math"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/aci"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/baseline"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/physics"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// Config tunes thresholds the ladder checks against. Defaults match
// spec.md §4.5 literally.
type Config struct {
	FlowBalanceWellControl float64 // bbl/hr
	PitRateWellControl     float64 // bbl/hr
	GasWellControl         float64 // units
	SPPDeltaHydraulics     float64 // psi
	ECDMarginHydraulics    float64 // ppg
	TorqueDeltaMechanical  float64 // fraction, e.g. 0.15
	DxcTrendFormation      float64 // absolute
	MSEEfficiencyLow       float64 // percent
	FounderConfig          physics.FounderConfig
}

// DefaultConfig matches spec.md §4.5's literal thresholds.
func DefaultConfig() Config {
	return Config{
		FlowBalanceWellControl: 10,
		PitRateWellControl:     5,
		GasWellControl:         200,
		SPPDeltaHydraulics:     100,
		ECDMarginHydraulics:    0.3,
		TorqueDeltaMechanical:  0.15,
		DxcTrendFormation:      0.05,
		MSEEfficiencyLow:       70,
		FounderConfig:          physics.DefaultFounderConfig(),
	}
}

// Agent owns the baseline manager and per-metric ACI trackers shared
// across packets. It has no other mutable state.
type Agent struct {
	cfg      Config
	baseline *baseline.Manager

	aciMSE         *aci.Tracker
	aciTorque      *aci.Tracker
	aciSPP         *aci.Tracker
	aciFlowBalance *aci.Tracker
	aciECDMargin   *aci.Tracker
}

// NewAgent creates a tactical agent sharing the given baseline manager
// (the pipeline coordinator owns it so the strategic agent and
// optimizer can also read tracker status).
func NewAgent(cfg Config, baselineManager *baseline.Manager) *Agent {
	return &Agent{
		cfg:            cfg,
		baseline:       baselineManager,
		aciMSE:         aci.NewTracker(aci.DefaultConfig()),
		aciTorque:      aci.NewTracker(aci.DefaultConfig()),
		aciSPP:         aci.NewTracker(aci.DefaultConfig()),
		aciFlowBalance: aci.NewTracker(aci.DefaultConfig()),
		aciECDMargin:   aci.NewTracker(aci.DefaultConfig()),
	}
}

// Result is the tactical pass's output.
type Result struct {
	Ticket  *types.AdvisoryTicket
	Metrics types.DrillingMetrics
	Entry   types.HistoryEntry
}

// Process runs the full tactical pass for one packet against the
// recent history (oldest first, used by the physics engine for trends
// and founder detection) and the current formation's optimal MSE /
// hardness (0 values are fine when no prognosis is loaded yet).
func (a *Agent) Process(packet types.WitsPacket, history []types.HistoryEntry, optimalMSE, formationHardness float64) Result {
	if packet.RigState == "" {
		packet.RigState = ClassifyRigState(packet)
	}

	report := physics.Report(packet, history, optimalMSE, formationHardness, a.cfg.FounderConfig)
	isNormal := packet.RigState.IsNormalDrilling()

	flowBalance := physics.FlowBalance(packet.FlowIn, packet.FlowOut)
	ecdMargin := physics.ECDMargin(packet.FractureGradient, packet.ECD)
	mse := physics.MSE(packet.WOB, packet.RPM, packet.Torque, packet.ROP, packet.BitDiameter)

	// Baseline is frozen for threshold purposes while not drilling, but
	// keeps accepting updates whenever the rig state IS normal drilling
	// (spec.md §4.2); non-normal packets never touch the trackers so
	// connections/trips cannot pollute "normal".
	if isNormal {
		// Only the first Observe counts the packet toward the
		// drilling-sample / warm-up counter, so it advances once per packet.
		a.baseline.Observe("mse", mse, true)
		a.baseline.Observe("torque", packet.Torque, false)
		a.baseline.Observe("spp", packet.SPP, false)
		a.baseline.Observe("flow_balance", flowBalance, false)
		a.baseline.Observe("ecd_margin", ecdMargin, false)

		a.aciMSE.Update(mse)
		a.aciTorque.Update(packet.Torque)
		a.aciSPP.Update(packet.SPP)
		a.aciFlowBalance.Update(flowBalance)
		a.aciECDMargin.Update(ecdMargin)
	}

	mseTracker := a.baseline.Tracker("mse")
	mseMedian, _ := mseTracker.MedianMAD()
	mseDeltaPercent := 0.0
	if mseMedian != 0 {
		mseDeltaPercent = (mse - mseMedian) / mseMedian
	}

	torqueTracker := a.baseline.Tracker("torque")
	torqueMedian, _ := torqueTracker.MedianMAD()
	torqueDeltaPercent := 0.0
	if torqueMedian != 0 {
		torqueDeltaPercent = (packet.Torque - torqueMedian) / torqueMedian
	}

	sppTracker := a.baseline.Tracker("spp")
	sppMedian, _ := sppTracker.MedianMAD()
	sppDelta := packet.SPP - sppMedian

	metrics := types.DrillingMetrics{
		State:              packet.RigState,
		MSE:                mse,
		MSEEfficiency:      report.MSEEfficiency,
		DExponent:          packet.DExponent,
		Dxc:                packet.Dxc,
		MSEDeltaPercent:    mseDeltaPercent,
		FlowBalance:        flowBalance,
		PitRate:            packet.PitVolumeChange,
		ECDMargin:          ecdMargin,
		TorqueDeltaPercent: torqueDeltaPercent,
		SPPDelta:           sppDelta,
		FlowDataAvailable:  packet.FlowIn != 0 || packet.FlowOut != 0,
	}

	baselineLocked := mseTracker.Status() == baseline.StatusLocked
	warmUp := a.baseline.InWarmUp()

	category, severity, trigger, triggerValue, threshold, fired := a.classify(packet, metrics, report, baselineLocked, isNormal, history)

	metrics.IsAnomaly = category != types.CategoryNone
	metrics.AnomalyCategory = category

	var ticket *types.AdvisoryTicket
	// CfC warm-up gate: during warm-up, only WellControl tickets pass.
	if category != types.CategoryNone && (!warmUp || category == types.CategoryWellControl) {
		trace := make([]string, 0, len(fired))
		for k, v := range fired {
			trace = append(trace, k)
			_ = v
		}
		ticket = &types.AdvisoryTicket{
			Timestamp:        packet.Timestamp,
			Type:             ticketType(category),
			Category:         category,
			Severity:         severity,
			CurrentMetrics:   metrics,
			TriggerParameter: trigger,
			TriggerValue:     triggerValue,
			ThresholdValue:   threshold,
			Description:      describe(category, trigger, triggerValue, threshold),
			Context:          &types.TacticalContext{FiredThresholds: fired},
			Depth:            packet.BitDepth,
			TraceLog:         trace,
		}
	}

	entry := types.HistoryEntry{Packet: packet, Metrics: metrics}
	return Result{Ticket: ticket, Metrics: metrics, Entry: entry}
}

// classify runs the fixed priority ladder. First match wins.
func (a *Agent) classify(packet types.WitsPacket, m types.DrillingMetrics, report types.DrillingPhysicsReport, baselineLocked, isNormal bool, history []types.HistoryEntry) (
	category types.AnomalyCategory, severity types.TicketSeverity, trigger string, triggerValue, threshold float64, fired map[string]float64) {

	fired = make(map[string]float64)

	// WellControl — never suppressed by baseline lock or warm-up.
	if egregious, param, val, thr := wellControlEgregious(packet, m); egregious {
		fired[param] = val
		return types.CategoryWellControl, types.SeverityCritical, param, val, thr, fired
	}
	if flag, param, val, thr := wellControlCheck(a.cfg, packet, m); flag {
		fired[param] = val
		return types.CategoryWellControl, types.SeverityHigh, param, val, thr, fired
	}

	// Hydraulics
	if math.Abs(m.SPPDelta) > a.cfg.SPPDeltaHydraulics {
		fired["spp_delta"] = m.SPPDelta
		return types.CategoryHydraulics, types.SeverityHigh, "spp_delta", m.SPPDelta, a.cfg.SPPDeltaHydraulics, fired
	}
	if m.ECDMargin < a.cfg.ECDMarginHydraulics {
		fired["ecd_margin"] = m.ECDMargin
		return types.CategoryHydraulics, types.SeverityHigh, "ecd_margin", m.ECDMargin, a.cfg.ECDMarginHydraulics, fired
	}

	// Mechanical
	if m.TorqueDeltaPercent > a.cfg.TorqueDeltaMechanical {
		fired["torque_delta_percent"] = m.TorqueDeltaPercent
		return types.CategoryMechanical, types.SeverityMedium, "torque_delta_percent", m.TorqueDeltaPercent, a.cfg.TorqueDeltaMechanical, fired
	}
	if report.FounderDetected {
		fired["founder_severity"] = report.FounderSeverity
		return types.CategoryMechanical, types.SeverityMedium, "founder_severity", report.FounderSeverity, 0, fired
	}
	if cv, indicated := stickSlipIndicated(history); indicated {
		fired["torque_cv"] = cv
		return types.CategoryMechanical, types.SeverityMedium, "torque_cv", cv, stickSlipCVThreshold, fired
	}

	// Formation — only evaluated while actually drilling.
	if isNormal && math.Abs(report.DxcTrend) > a.cfg.DxcTrendFormation {
		fired["dxc_trend"] = report.DxcTrend
		return types.CategoryFormation, types.SeverityLow, "dxc_trend", report.DxcTrend, a.cfg.DxcTrendFormation, fired
	}

	// DrillingEfficiency — requires a locked baseline and Drilling state.
	if baselineLocked && packet.RigState == types.RigDrilling && m.MSEEfficiency < a.cfg.MSEEfficiencyLow {
		fired["mse_efficiency"] = m.MSEEfficiency
		return types.CategoryDrillingEfficiency, types.SeverityMedium, "mse_efficiency", m.MSEEfficiency, a.cfg.MSEEfficiencyLow, fired
	}

	return types.CategoryNone, types.SeverityLow, "", 0, 0, fired
}

// stickSlipCVThreshold is the torque coefficient-of-variation above
// which recent samples are treated as stick-slip oscillation.
const stickSlipCVThreshold = 0.25

// stickSlipWindow is how many recent history entries are examined.
const stickSlipWindow = 10

// stickSlipIndicated reports whether torque over the most recent
// window shows high relative variability, a proxy for stick-slip
// oscillation. Requires at least 5 samples to avoid false positives
// on short history.
func stickSlipIndicated(history []types.HistoryEntry) (coefficientOfVariation float64, indicated bool) {
	n := len(history)
	if n < 5 {
		return 0, false
	}
	start := n - stickSlipWindow
	if start < 0 {
		start = 0
	}
	window := history[start:]

	var sum float64
	for _, h := range window {
		sum += h.Packet.Torque
	}
	mean := sum / float64(len(window))
	if mean <= 0 {
		return 0, false
	}

	var variance float64
	for _, h := range window {
		d := h.Packet.Torque - mean
		variance += d * d
	}
	variance /= float64(len(window))
	stdDev := math.Sqrt(variance)
	cv := stdDev / mean
	return cv, cv > stickSlipCVThreshold
}

func wellControlEgregious(packet types.WitsPacket, m types.DrillingMetrics) (bool, string, float64, float64) {
	if packet.H2S > 0 {
		return true, "h2s", packet.H2S, 0
	}
	if m.ECDMargin < 0 {
		return true, "ecd_margin", m.ECDMargin, 0
	}
	return false, "", 0, 0
}

func wellControlCheck(cfg Config, packet types.WitsPacket, m types.DrillingMetrics) (bool, string, float64, float64) {
	if math.Abs(m.FlowBalance) > cfg.FlowBalanceWellControl {
		return true, "flow_balance", m.FlowBalance, cfg.FlowBalanceWellControl
	}
	if m.PitRate > cfg.PitRateWellControl {
		return true, "pit_rate", m.PitRate, cfg.PitRateWellControl
	}
	if packet.GasUnits > cfg.GasWellControl {
		return true, "gas_units", packet.GasUnits, cfg.GasWellControl
	}
	return false, "", 0, 0
}

func ticketType(category types.AnomalyCategory) types.TicketType {
	switch category {
	case types.CategoryWellControl:
		return types.TicketIntervention
	case types.CategoryDrillingEfficiency:
		return types.TicketOptimization
	default:
		return types.TicketRiskWarning
	}
}

func describe(category types.AnomalyCategory, trigger string, value, threshold float64) string {
	switch category {
	case types.CategoryWellControl:
		return "well control trigger: " + trigger
	case types.CategoryHydraulics:
		return "hydraulics deviation: " + trigger
	case types.CategoryMechanical:
		return "mechanical deviation: " + trigger
	case types.CategoryFormation:
		return "formation transition indicated by " + trigger
	case types.CategoryDrillingEfficiency:
		return "drilling efficiency below threshold"
	default:
		return ""
	}
}
