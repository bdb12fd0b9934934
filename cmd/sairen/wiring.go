package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/config"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/fleet"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/kbstore"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/llm"
	sairenlog "github.com/ashton-dyke/SAIREN-OS-sub000/internal/log"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/metrics"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/persistence"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/persistence/boltlike"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/pipeline"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/tactical"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// deployment bundles the wiring every subcommand shares: config,
// metrics, storage, and a pipeline coordinator emitting into it.
type deployment struct {
	cfg      *config.Config
	registry *metrics.Registry
	store    *persistence.Fanout
	pipeline *pipeline.Pipeline
	watcher  *kbstore.Watcher
}

func buildDeployment(configFile string, hub *fleet.Hub) (*deployment, error) {
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	sairenlog.Init(cfg.LogLevel)

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	primaryPath := os.Getenv("SAIREN_ADVISORY_LOG")
	if primaryPath == "" {
		primaryPath = "advisories.log"
	}
	primary, err := boltlike.Open(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open advisory log: %v", persistence.ErrStorage, err)
	}
	store := &persistence.Fanout{Primary: primary}

	if dsn := os.Getenv("SAIREN_POSTGRES_DSN"); dsn != "" {
		pgCfg := persistence.DefaultPostgresConfig()
		pgCfg.DSN = dsn
		secondary, err := persistence.NewPostgresStore(pgCfg)
		if err != nil {
			log.Warn().Err(err).Msg("postgres secondary sink unavailable, continuing with primary only")
		} else {
			store.Secondary = secondary
		}
	}

	var backend llm.Backend = llm.NoOp{}
	if url := os.Getenv("SAIREN_LLM_URL"); url != "" {
		backend = llm.NewHTTPBackend(url, 5_000_000_000)
	}

	emit := func(adv types.StrategicAdvisory) {
		ctx := context.Background()
		if err := store.Store(ctx, adv); err != nil {
			log.Error().Err(err).Msg("failed to persist advisory")
		}
		reg.AdvisoriesEmitted.WithLabelValues(string(adv.Category), adv.Source).Inc()

		if hub != nil {
			if err := hub.PublishAdvisory(ctx, adv); err != nil {
				log.Debug().Err(err).Msg("fleet publish failed")
			}
		}
	}

	p := pipeline.New(pipeline.Config{
		TacticalConfig:     tactical.DefaultConfig(),
		BaselineWindowSize: cfg.Baseline.WindowSize,
		OptimizerCooldownS: cfg.Optimizer.CooldownSecs,
		Campaign:           types.CampaignProduction,
		Backend:            backend,
		Emit:               emit,
	})

	var watcher *kbstore.Watcher
	if cfg.KB.Root != "" {
		paths := kbstore.WellPaths{Root: cfg.KB.Root, Field: cfg.Well.Field, Well: cfg.Well.Name}
		watcher = kbstore.NewWatcher(paths, 0, p.SetPrognosis)
	}

	return &deployment{cfg: cfg, registry: reg, store: store, pipeline: p, watcher: watcher}, nil
}

func (d *deployment) close() {
	if err := d.store.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing advisory store")
	}
}
