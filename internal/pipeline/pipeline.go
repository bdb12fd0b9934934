// Package pipeline owns the per-packet coordination described in
// spec.md §4.9: the baseline manager, tactical and strategic agents,
// the optimizer, the advisory composer, the bounded history ring, and
// the current formation-prognosis snapshot. Structurally generalized
// from the teacher's internal/stream event-bus coordinator (Start/
// Stop/Health lifecycle, single point of packet ingestion) into a
// single-threaded-per-instance drilling pipeline.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/advisory"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/baseline"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/llm"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/optimizer"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/physics"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/strategic"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/tactical"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// maxHistory is the history ring's cap (spec.md §4.9).
const maxHistory = 60

// Emit is called once per advisory the pipeline produces. Implementations
// must not block — the coordinator treats emission as a non-blocking
// broadcast (spec.md §5).
type Emit func(types.StrategicAdvisory)

// Pipeline is the single-instance, single-threaded-per-call coordinator.
// All exported methods are safe to call from one goroutine at a time
// driving packet ingestion; the prognosis snapshot (SetPrognosis) may
// be updated concurrently by a knowledge-base watcher.
type Pipeline struct {
	mu sync.Mutex

	tactical  *tactical.Agent
	baseline  *baseline.Manager
	optimizer *optimizer.Engine
	composer  *advisory.Composer

	history []types.HistoryEntry

	campaign types.Campaign
	founder  physics.FounderConfig

	prognosis atomic.Pointer[types.FormationPrognosis]

	emit Emit

	cfcScore *float64

	droppedPackets uint64
}

// Config bundles the construction-time knobs a coordinator needs.
type Config struct {
	TacticalConfig     tactical.Config
	BaselineWindowSize int
	OptimizerCooldownS int
	Campaign           types.Campaign
	Backend            llm.Backend
	Emit               Emit
}

// New builds a coordinator with fresh agents and an empty history
// ring.
func New(cfg Config) *Pipeline {
	bm := baseline.NewManager(cfg.BaselineWindowSize)
	p := &Pipeline{
		tactical:  tactical.NewAgent(cfg.TacticalConfig, bm),
		baseline:  bm,
		optimizer: optimizer.NewEngine(cfg.OptimizerCooldownS),
		composer:  advisory.NewComposer(cfg.Backend),
		campaign:  cfg.Campaign,
		founder:   cfg.TacticalConfig.FounderConfig,
		emit:      cfg.Emit,
	}
	p.prognosis.Store(&types.FormationPrognosis{})
	return p
}

// SetPrognosis atomically replaces the formation-prognosis snapshot.
// Called by the knowledge-base watcher whenever on-disk files change.
func (p *Pipeline) SetPrognosis(snapshot types.FormationPrognosis) {
	p.prognosis.Store(&snapshot)
}

// Prognosis returns the current read-mostly snapshot.
func (p *Pipeline) Prognosis() types.FormationPrognosis {
	return *p.prognosis.Load()
}

// SetCfCScore records the latest out-of-band CfC anomaly score (nil
// clears it — "no signal", per the Open-Question decision).
func (p *Pipeline) SetCfCScore(score *float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfcScore = score
}

// DroppedPackets returns the running count of packets dropped at
// ingest due to a full upstream channel (tracked by the caller, which
// owns the channel; this counter is exposed here purely as a
// convenience accumulator for metrics export).
func (p *Pipeline) DroppedPackets() uint64 {
	return atomic.LoadUint64(&p.droppedPackets)
}

// RecordDroppedPacket increments the drop counter (spec.md §5's
// back-pressure policy: the producer drops oldest packets and
// increments a drop counter rather than blocking ingest timing).
func (p *Pipeline) RecordDroppedPacket() {
	atomic.AddUint64(&p.droppedPackets, 1)
}

// currentFormation finds the formation interval containing depthFt, or
// the zero value if the prognosis has no matching interval yet.
func currentFormation(prognosis types.FormationPrognosis, depthFt float64) types.FormationInterval {
	for _, f := range prognosis.Formations {
		if depthFt >= f.DepthTopFt && (f.DepthBaseFt == 0 || depthFt < f.DepthBaseFt) {
			return f
		}
	}
	return types.FormationInterval{}
}

// optimalMSE derives the physics engine's efficiency-comparison target
// from offset-well performance when available; zero (no comparison
// yet) otherwise.
func optimalMSE(formation types.FormationInterval) float64 {
	return formation.OffsetPerformance.AvgMSEPsi
}

// OnPacket runs the full per-packet sequence from spec.md §4.9 and
// emits zero or more advisories via the configured Emit callback.
func (p *Pipeline) OnPacket(ctx context.Context, packet types.WitsPacket, sensorQuality float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prognosis := p.Prognosis()
	formation := currentFormation(prognosis, packet.BitDepth)

	// Step 1-2: rig-state classification happens inside Process when
	// RigState is empty; tactical pass derives metrics and a candidate
	// ticket.
	result := p.tactical.Process(packet, p.history, optimalMSE(formation), formation.Hardness)

	// Step 3: append to history, evict from the front past the cap.
	p.history = append(p.history, result.Entry)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}

	// Step 4: strategic verification on a raised ticket.
	if result.Ticket != nil {
		verification := strategic.VerifyTicket(result.Ticket, p.history, optimalMSE(formation), formation.Hardness, p.founder)
		if verification.Status == types.VerificationConfirmed {
			result.Ticket.CausalLeads = verification.CausalLeads
			adv := p.composer.Compose(ctx, result.Ticket, verification.Physics, p.campaign, nil)
			p.emitAdvisory(adv)
		}
	}

	// Step 5: every 10th packet, run the optimizer.
	physicsReport := physics.Report(packet, p.history, optimalMSE(formation), formation.Hardness, p.founder)
	if adv, _, ok := p.optimizer.Evaluate(packet, physicsReport, formation, prognosis, p.history, p.cfcScore, sensorQuality); ok {
		p.emitAdvisory(advisory.ComposeOptimization(*adv, packet.Timestamp))
		// Step 6: a look-ahead surfaced alongside the optimizer advisory
		// is already embedded in it; nothing further to emit.
		return
	}

	// Step 6: an independent look-ahead firing (optimizer otherwise
	// skipped this cycle) still gets its own advisory.
	if la := optimizer.CheckLookAhead(prognosis, packet.BitDepth, packet.ROP, formation); la != nil {
		p.emitAdvisory(advisory.ComposeLookAhead(*la, packet.Timestamp))
	}
}

func (p *Pipeline) emitAdvisory(adv types.StrategicAdvisory) {
	if p.emit != nil {
		p.emit(adv)
	}
}
