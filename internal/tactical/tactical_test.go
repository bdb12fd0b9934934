package tactical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/baseline"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func basePacket() types.WitsPacket {
	return types.WitsPacket{
		Timestamp:   1000,
		BitDepth:    10000,
		ROP:         60,
		WOB:         25,
		RPM:         120,
		Torque:      15,
		BitDiameter: 8.5,
		SPP:         2800,
		FlowIn:      500,
		FlowOut:     500,
		ECD:         12.0,
		FractureGradient: 15.0,
		RigState:    types.RigDrilling,
	}
}

func TestClassifyRigState_Drilling(t *testing.T) {
	p := basePacket()
	assert.Equal(t, types.RigDrilling, ClassifyRigState(p))
}

func TestClassifyRigState_Idle(t *testing.T) {
	p := types.WitsPacket{RPM: 0, WOB: 0, HookLoad: 0}
	assert.Equal(t, types.RigIdle, ClassifyRigState(p))
}

func TestClassifyRigState_TrippingRequiresBlockPosition(t *testing.T) {
	p := types.WitsPacket{RPM: 1, HookLoad: 250}
	assert.Equal(t, types.RigIdle, ClassifyRigState(p), "missing block position must never yield a tripping state")

	p.HasBlockPosition = true
	p.BlockPosition = 5
	assert.Equal(t, types.RigTrippingOut, ClassifyRigState(p))
}

func TestClassifyRigState_TrippingTakesPriorityOverConnectionHookLoadBand(t *testing.T) {
	p := types.WitsPacket{RPM: 1, HookLoad: 120, HasBlockPosition: true, BlockPosition: 5}
	assert.Equal(t, types.RigTrippingOut, ClassifyRigState(p))

	p.HookLoad = 90
	assert.Equal(t, types.RigTrippingIn, ClassifyRigState(p))
}

func TestProcess_FlowBalanceExactlyAtThreshold_NoTicket(t *testing.T) {
	agent := NewAgent(DefaultConfig(), baseline.NewManager(0))
	p := basePacket()
	// flow_balance = (flow_out - flow_in) * 60/42; choose flows so the
	// balance lands exactly at 10 bbl/hr. The threshold check is a
	// strict ">", so exactly-at-threshold must not raise a ticket.
	p.FlowOut = p.FlowIn + 10*(42.0/60.0)
	res := agent.Process(p, nil, 0, 0)
	assert.Nil(t, res.Ticket)
}

func TestProcess_FlowImbalance_RaisesWellControl(t *testing.T) {
	agent := NewAgent(DefaultConfig(), baseline.NewManager(0))
	p := basePacket()
	p.FlowOut = p.FlowIn + 20*(42.0/60.0)
	res := agent.Process(p, nil, 0, 0)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, types.CategoryWellControl, res.Ticket.Category)
	assert.Equal(t, types.SeverityHigh, res.Ticket.Severity)
}

func TestProcess_H2SAlwaysCritical(t *testing.T) {
	agent := NewAgent(DefaultConfig(), baseline.NewManager(0))
	p := basePacket()
	p.H2S = 1
	res := agent.Process(p, nil, 0, 0)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, types.CategoryWellControl, res.Ticket.Category)
	assert.Equal(t, types.SeverityCritical, res.Ticket.Severity)
}

func TestProcess_NegativeECDMargin_CriticalWellControl(t *testing.T) {
	agent := NewAgent(DefaultConfig(), baseline.NewManager(0))
	p := basePacket()
	p.ECD = 20
	p.FractureGradient = 15
	res := agent.Process(p, nil, 0, 0)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, types.CategoryWellControl, res.Ticket.Category)
	assert.Equal(t, types.SeverityCritical, res.Ticket.Severity)
}

func TestProcess_WarmUpSuppressesNonWellControlTickets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ECDMarginHydraulics = 1000 // force a hydraulics ticket path at the first sample
	agent := NewAgent(cfg, baseline.NewManager(0))
	p := basePacket()
	res := agent.Process(p, nil, 0, 0)
	assert.Nil(t, res.Ticket, "non-well-control tickets must be suppressed during CfC warm-up")
}

func TestProcess_NoAnomaly_NoTicket(t *testing.T) {
	agent := NewAgent(DefaultConfig(), baseline.NewManager(0))
	p := basePacket()
	res := agent.Process(p, nil, 0, 0)
	assert.Nil(t, res.Ticket)
	assert.False(t, res.Metrics.IsAnomaly)
	assert.Equal(t, types.CategoryNone, res.Metrics.AnomalyCategory)
}

func TestProcess_NonDrillingState_SkipsBaselineAndACI(t *testing.T) {
	mgr := baseline.NewManager(0)
	agent := NewAgent(DefaultConfig(), mgr)
	p := basePacket()
	p.RigState = types.RigConnection
	p.RPM = 1
	p.WOB = 1
	_ = agent.Process(p, nil, 0, 0)
	assert.Equal(t, 0, mgr.DrillingSamplesSeen())
}
