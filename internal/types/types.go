// Package types holds the shared data model for the drilling advisory
// pipeline: sensor packets, derived metrics, tickets, and the
// strategic advisories the pipeline emits.
package types

import "time"

// RigState classifies what the rig is currently doing.
type RigState string

const (
	RigDrilling    RigState = "drilling"
	RigReaming     RigState = "reaming"
	RigCirculating RigState = "circulating"
	RigConnection  RigState = "connection"
	RigTrippingIn  RigState = "tripping_in"
	RigTrippingOut RigState = "tripping_out"
	RigIdle        RigState = "idle"
)

// IsNormalDrilling reports whether baseline samples should count
// toward the "drilling sample" count in this state.
func (s RigState) IsNormalDrilling() bool {
	switch s {
	case RigDrilling, RigReaming, RigCirculating:
		return true
	default:
		return false
	}
}

// Campaign distinguishes the operational phase a well is in; it
// changes advisory wording (e.g. tighter flow tolerance during P&A).
type Campaign string

const (
	CampaignProduction       Campaign = "production"
	CampaignPlugAbandonment  Campaign = "plug_abandonment"
)

// AnomalyCategory is the closed set of ticket/advisory categories.
type AnomalyCategory string

const (
	CategoryNone              AnomalyCategory = "none"
	CategoryDrillingEfficiency AnomalyCategory = "drilling_efficiency"
	CategoryHydraulics        AnomalyCategory = "hydraulics"
	CategoryWellControl       AnomalyCategory = "well_control"
	CategoryMechanical        AnomalyCategory = "mechanical"
	CategoryFormation         AnomalyCategory = "formation"
)

// TicketType distinguishes why a candidate ticket was raised.
type TicketType string

const (
	TicketOptimization  TicketType = "optimization"
	TicketRiskWarning   TicketType = "risk_warning"
	TicketIntervention  TicketType = "intervention"
)

// TicketSeverity ranks how urgently a ticket needs attention.
type TicketSeverity string

const (
	SeverityLow      TicketSeverity = "low"
	SeverityMedium   TicketSeverity = "medium"
	SeverityHigh     TicketSeverity = "high"
	SeverityCritical TicketSeverity = "critical"
)

// RiskLevel is the strategic advisory's headline risk rating.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// FinalSeverity mirrors TicketSeverity for the composed advisory.
type FinalSeverity string

const (
	FinalLow      FinalSeverity = "low"
	FinalMedium   FinalSeverity = "medium"
	FinalHigh     FinalSeverity = "high"
	FinalCritical FinalSeverity = "critical"
)

// DrillingParameter names a tunable rig parameter the optimizer can
// recommend changes for.
type DrillingParameter string

const (
	ParamWOB      DrillingParameter = "wob"
	ParamRPM      DrillingParameter = "rpm"
	ParamFlowRate DrillingParameter = "flow_rate"

	// Additional candidates reported only by the causal-lead detector
	// (the optimizer only ever recommends WOB/RPM/FlowRate).
	ParamTorque DrillingParameter = "torque"
	ParamSPP    DrillingParameter = "spp"
	ParamROP    DrillingParameter = "rop"
)

// WitsPacket is one sensor sample, WITS Level 0 shaped. Timestamps are
// whole seconds since epoch. Zero is the default for any field the
// transport did not supply.
type WitsPacket struct {
	Timestamp int64 `json:"timestamp"`

	BitDepth  float64 `json:"bit_depth"`
	HoleDepth float64 `json:"hole_depth"`
	ROP       float64 `json:"rop"`
	HookLoad  float64 `json:"hook_load"`
	WOB       float64 `json:"wob"`
	RPM       float64 `json:"rpm"`
	Torque    float64 `json:"torque"`
	BitDiameter float64 `json:"bit_diameter"`

	SPP     float64 `json:"spp"`
	PumpSPM float64 `json:"pump_spm"`
	FlowIn  float64 `json:"flow_in"`
	FlowOut float64 `json:"flow_out"`

	PitVolume       float64 `json:"pit_volume"`
	PitVolumeChange float64 `json:"pit_volume_change"`

	MudWeightIn  float64 `json:"mud_weight_in"`
	MudWeightOut float64 `json:"mud_weight_out"`
	ECD          float64 `json:"ecd"`
	MudTempIn    float64 `json:"mud_temp_in"`
	MudTempOut   float64 `json:"mud_temp_out"`

	GasUnits       float64 `json:"gas_units"`
	BackgroundGas  float64 `json:"background_gas"`
	ConnectionGas  float64 `json:"connection_gas"`
	H2S            float64 `json:"h2s"`
	CO2            float64 `json:"co2"`

	CasingPressure  float64 `json:"casing_pressure"`
	AnnularPressure float64 `json:"annular_pressure"`

	PorePressure     float64 `json:"pore_pressure"`
	FractureGradient float64 `json:"fracture_gradient"`

	MSE          float64 `json:"mse"`
	DExponent    float64 `json:"d_exponent"`
	Dxc          float64 `json:"dxc"`
	ROPDelta     float64 `json:"rop_delta"`
	TorqueDeltaPercent float64 `json:"torque_delta_percent"`
	SPPDelta     float64 `json:"spp_delta"`

	RigState                 RigState `json:"rig_state"`
	RegimeID                 int      `json:"regime_id"`
	SecondsSinceParamChange  int64    `json:"seconds_since_param_change"`

	// BlockPosition is optional; HasBlockPosition records whether the
	// transport reported it (the line-protocol parser sets it, NDJSON
	// decoding never does). The rig-state ladder only considers the
	// tripping states when it was reported and is positive; otherwise
	// the packet falls through to Connection or Idle.
	BlockPosition float64 `json:"block_position,omitempty"`
	HasBlockPosition bool  `json:"-"`

	// Waveform is an opaque snapshot carried by reference; not part of
	// the core contract, never inspected by the pipeline itself.
	Waveform any `json:"-"`
}

// Time returns the packet timestamp as a time.Time (UTC).
func (p WitsPacket) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// DrillingMetrics are the per-packet values derived by the physics
// engine and classified by the tactical agent.
type DrillingMetrics struct {
	State     RigState `json:"state"`
	Operation string   `json:"operation"`

	MSE              float64 `json:"mse"`
	MSEEfficiency    float64 `json:"mse_efficiency"`
	DExponent        float64 `json:"d_exponent"`
	Dxc              float64 `json:"dxc"`
	MSEDeltaPercent  float64 `json:"mse_delta_percent"`

	FlowBalance float64 `json:"flow_balance"`
	PitRate     float64 `json:"pit_rate"`
	ECDMargin   float64 `json:"ecd_margin"`

	TorqueDeltaPercent float64 `json:"torque_delta_percent"`
	SPPDelta           float64 `json:"spp_delta"`

	FlowDataAvailable bool `json:"flow_data_available"`

	IsAnomaly          bool            `json:"is_anomaly"`
	AnomalyCategory    AnomalyCategory `json:"anomaly_category"`
	AnomalyDescription string          `json:"anomaly_description,omitempty"`

	CurrentFormation    string  `json:"current_formation,omitempty"`
	FormationDepthInFt  float64 `json:"formation_depth_in_ft,omitempty"`
}

// CausalLead names a lagged correlate of the target metric (MSE).
type CausalLead struct {
	Parameter       DrillingParameter `json:"parameter"`
	LagSeconds      int               `json:"lag_seconds"`
	PearsonR        float64           `json:"pearson_r"`
	CorrelationSign int               `json:"correlation_sign"` // +1 or -1
}

// AdvisoryTicket is a candidate anomaly raised by the tactical agent,
// pending strategic verification.
type AdvisoryTicket struct {
	Timestamp int64           `json:"timestamp"`
	Type      TicketType      `json:"type"`
	Category  AnomalyCategory `json:"category"`
	Severity  TicketSeverity  `json:"severity"`

	CurrentMetrics DrillingMetrics `json:"current_metrics"`

	TriggerParameter string  `json:"trigger_parameter"`
	TriggerValue     float64 `json:"trigger_value"`
	ThresholdValue   float64 `json:"threshold_value"`
	Description      string  `json:"description"`

	Context *TacticalContext `json:"context,omitempty"`

	Depth    float64  `json:"depth"`
	TraceLog []string `json:"trace_log"`

	CfCAnomalyScore  *float64      `json:"cfc_anomaly_score,omitempty"`
	FeatureSurprise  []string      `json:"feature_surprise,omitempty"`
	CausalLeads      []CausalLead  `json:"causal_leads,omitempty"`
	DampingRecommendation *string  `json:"damping_recommendation,omitempty"`
}

// TacticalContext records which thresholds fired and their values, for
// explainability in the final advisory text.
type TacticalContext struct {
	FiredThresholds map[string]float64 `json:"fired_thresholds"`
}

// ParameterRange is a safe operating band plus the prognosis-optimal
// point within it.
type ParameterRange struct {
	Min     float64 `json:"min"`
	Optimal float64 `json:"optimal"`
	Max     float64 `json:"max"`
}

// FormationParameters are the recommended parameter ranges for a
// formation interval.
type FormationParameters struct {
	WOBKlbs    ParameterRange `json:"wob_klbs"`
	RPM        ParameterRange `json:"rpm"`
	FlowGPM    ParameterRange `json:"flow_gpm"`
	MudWeightPPG float64      `json:"mud_weight_ppg"`
	BitType    string         `json:"bit_type"`
}

// BestParams records the best-performing offset-well parameter values.
type BestParams struct {
	WOBKlbs float64 `json:"wob_klbs"`
	RPM     float64 `json:"rpm"`
}

// OffsetPerformance summarizes how nearby wells performed in this
// formation.
type OffsetPerformance struct {
	Wells        []string   `json:"wells"`
	AvgROPFtHr   float64    `json:"avg_rop_ft_hr"`
	BestROPFtHr  float64    `json:"best_rop_ft_hr"`
	AvgMSEPsi    float64    `json:"avg_mse_psi"`
	BestParams   BestParams `json:"best_params"`
	Notes        string     `json:"notes"`
}

// FormationInterval is one entry in the formation prognosis.
type FormationInterval struct {
	Name             string   `json:"name"`
	DepthTopFt       float64  `json:"depth_top_ft"`
	DepthBaseFt      float64  `json:"depth_base_ft"`
	Lithology        string   `json:"lithology"`
	Hardness         float64  `json:"hardness"`
	Drillability     string   `json:"drillability"`
	PorePressurePPG  float64  `json:"pore_pressure_ppg"`
	FractureGradientPPG float64 `json:"fracture_gradient_ppg"`
	Hazards          []string `json:"hazards"`

	Parameters        FormationParameters `json:"parameters"`
	OffsetPerformance OffsetPerformance   `json:"offset_performance"`
}

// PrognosisWellInfo is the well-identity block of a formation
// prognosis.
type PrognosisWellInfo struct {
	Name             string `json:"name"`
	Field            string `json:"field"`
	SpudDate         string `json:"spud_date"`
	TargetDepthFt    float64 `json:"target_depth_ft"`
	CoordinateSystem string `json:"coordinate_system"`
}

// CasingInterval is one entry in the casing schedule.
type CasingInterval struct {
	Name       string  `json:"name"`
	SetDepthFt float64 `json:"set_depth_ft"`
	SizeInches float64 `json:"size_inches"`
}

// FormationPrognosis is the read-mostly formation-prognosis snapshot
// published by the knowledge-base watcher.
type FormationPrognosis struct {
	Well        PrognosisWellInfo   `json:"well"`
	Formations  []FormationInterval `json:"formations"`
	Casings     []CasingInterval    `json:"casings"`
}

// NextFormationAfter returns the first formation interval whose top is
// strictly below the given depth, or a zero FormationInterval and
// false if none remains.
func (p FormationPrognosis) NextFormationAfter(depthFt float64) (FormationInterval, bool) {
	for _, f := range p.Formations {
		if f.DepthTopFt > depthFt {
			return f, true
		}
	}
	return FormationInterval{}, false
}

// DrillingPhysicsReport is the rolled-up output of the physics engine.
type DrillingPhysicsReport struct {
	CurrentDepth   float64 `json:"current_depth"`
	CurrentROP     float64 `json:"current_rop"`
	CurrentWOB     float64 `json:"current_wob"`
	CurrentRPM     float64 `json:"current_rpm"`
	CurrentTorque  float64 `json:"current_torque"`
	CurrentSPP     float64 `json:"current_spp"`
	CurrentFlowIn  float64 `json:"current_flow_in"`
	CurrentFlowOut float64 `json:"current_flow_out"`
	CurrentMudWeight float64 `json:"current_mud_weight"`
	CurrentECD     float64 `json:"current_ecd"`
	CurrentGas     float64 `json:"current_gas"`
	CurrentPitVolume float64 `json:"current_pit_volume"`

	AvgMSE         float64 `json:"avg_mse"`
	OptimalMSE     float64 `json:"optimal_mse"`
	MSEEfficiency  float64 `json:"mse_efficiency"`
	MSETrend       float64 `json:"mse_trend"`
	DxcTrend       float64 `json:"dxc_trend"`
	FlowBalanceTrend float64 `json:"flow_balance_trend"`

	FormationHardness float64 `json:"formation_hardness"`

	FounderDetected  bool    `json:"founder_detected"`
	FounderSeverity  float64 `json:"founder_severity"`
	OptimalWOBEstimate float64 `json:"optimal_wob_estimate"`
}

// HistoryEntry pairs a packet with its derived metrics.
type HistoryEntry struct {
	Packet  WitsPacket      `json:"packet"`
	Metrics DrillingMetrics `json:"metrics"`
}

// VerificationStatus is a closed sum type — never overload a bool for
// this (spec §9 design note).
type VerificationStatus string

const (
	VerificationConfirmed VerificationStatus = "confirmed"
	VerificationRejected  VerificationStatus = "rejected"
)

// VerificationResult is the strategic agent's verdict on a candidate
// ticket.
type VerificationResult struct {
	Status       VerificationStatus `json:"status"`
	CausalLeads  []CausalLead       `json:"causal_leads"`
	Physics      DrillingPhysicsReport `json:"physics_report"`
	Trace        []string           `json:"trace"`
}

// OptimizationSkipReason is a closed sum type naming why the optimizer
// declined to produce an advisory this cycle.
type OptimizationSkipReason string

const (
	SkipRateLimited         OptimizationSkipReason = "rate_limited"
	SkipAnomalyActive       OptimizationSkipReason = "anomaly_active"
	SkipNotDrilling         OptimizationSkipReason = "not_drilling"
	SkipInsufficientHistory OptimizationSkipReason = "insufficient_history"
	SkipLowConfidence       OptimizationSkipReason = "low_confidence"
)

// ConfidenceBreakdown is the optimizer's 5-factor confidence score.
type ConfidenceBreakdown struct {
	OffsetWells       float64 `json:"offset_wells"`
	ParameterGap      float64 `json:"parameter_gap"`
	TrendConsistency  float64 `json:"trend_consistency"`
	SensorQuality     float64 `json:"sensor_quality"`
	CfCAgreement      float64 `json:"cfc_agreement"`
}

// Percent returns the weighted composite as an integer 0-100.
// Weights: offset wells 30%, parameter gap 25%, trend consistency 20%,
// sensor quality 15%, CfC agreement 10%.
func (c ConfidenceBreakdown) Percent() uint8 {
	score := c.OffsetWells*0.30 + c.ParameterGap*0.25 + c.TrendConsistency*0.20 +
		c.SensorQuality*0.15 + c.CfCAgreement*0.10
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return uint8(score * 100)
}

// ParameterRecommendation is one bounded, rate-limited parameter change
// suggestion.
type ParameterRecommendation struct {
	Parameter       DrillingParameter `json:"parameter"`
	CurrentValue    float64           `json:"current_value"`
	RecommendedValue float64          `json:"recommended_value"`
	SafeMin         float64           `json:"safe_min"`
	SafeMax         float64           `json:"safe_max"`
	ExpectedImpact  float64           `json:"expected_impact"`
	Evidence        string            `json:"evidence"`
}

// LookAheadAdvisory is a proactive heads-up about an upcoming
// formation transition.
type LookAheadAdvisory struct {
	FormationName      string   `json:"formation_name"`
	EstimatedMinutes   float64  `json:"estimated_minutes"`
	DepthRemainingFt   float64  `json:"depth_remaining_ft"`
	ParameterChanges   []string `json:"parameter_changes"`
	Hazards            []string `json:"hazards"`
	OffsetNotes        string   `json:"offset_notes"`
	CfCConfidence      *float64 `json:"cfc_confidence,omitempty"`
}

// OptimizationAdvisory is the parameter optimizer's output when it
// succeeds.
type OptimizationAdvisory struct {
	Formation       string                    `json:"formation"`
	DepthFt         float64                   `json:"depth_ft"`
	Recommendations []ParameterRecommendation `json:"recommendations"`
	Confidence      ConfidenceBreakdown       `json:"confidence"`
	ROPRatio        float64                   `json:"rop_ratio"`
	MSEEfficiency   float64                   `json:"mse_efficiency"`
	LookAhead       *LookAheadAdvisory        `json:"look_ahead,omitempty"`
	Source          string                    `json:"source"`
}

// StrategicAdvisory is the pipeline's user-facing output.
type StrategicAdvisory struct {
	Timestamp       int64           `json:"timestamp"`
	EfficiencyScore uint8           `json:"efficiency_score"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	Severity        FinalSeverity   `json:"severity"`

	Recommendation  string   `json:"recommendation"`
	ExpectedBenefit string   `json:"expected_benefit"`
	Reasoning       string   `json:"reasoning"`
	Votes           []string `json:"votes"`

	PhysicsReport DrillingPhysicsReport `json:"physics_report"`
	ContextUsed   []string              `json:"context_used"`
	TraceLog      []string              `json:"trace_log"`

	Category         AnomalyCategory `json:"category"`
	TriggerParameter string          `json:"trigger_parameter,omitempty"`
	TriggerValue     float64         `json:"trigger_value,omitempty"`
	ThresholdValue   float64         `json:"threshold_value,omitempty"`

	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}
