package kbstore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// defaultPollInterval is how often the watcher re-checks the
// knowledge-base directory for changes.
const defaultPollInterval = 10 * time.Second

// Watcher polls a well's knowledge-base files for modification-time
// changes and republishes the formation prognosis through onChange
// when any of them move. Polling (time.Ticker) stands in for an
// fsnotify-based watch — justified in DESIGN.md, since no example
// repo imports fsnotify directly.
type Watcher struct {
	paths    WellPaths
	interval time.Duration
	onChange func(types.FormationPrognosis)

	lastSignature string
}

// NewWatcher builds a watcher for paths, calling onChange with a
// freshly loaded prognosis whenever the on-disk files change.
// interval <= 0 uses defaultPollInterval.
func NewWatcher(paths WellPaths, interval time.Duration, onChange func(types.FormationPrognosis)) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{paths: paths, interval: interval, onChange: onChange}
}

// Run polls until ctx is cancelled, loading and publishing the
// current prognosis once immediately and again on every detected
// change.
func (w *Watcher) Run(ctx context.Context) {
	w.checkAndPublish()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkAndPublish()
		}
	}
}

func (w *Watcher) checkAndPublish() {
	sig, err := w.signature()
	if err != nil {
		log.Warn().Err(err).Msg("kbstore: watcher failed to compute directory signature")
		return
	}
	if sig == w.lastSignature {
		return
	}
	w.lastSignature = sig

	prognosis, err := LoadPrognosis(w.paths)
	if err != nil {
		log.Warn().Err(err).Msg("kbstore: watcher failed to reload prognosis")
		return
	}
	log.Info().Str("well", w.paths.Well).Msg("kbstore: formation prognosis reloaded")
	w.onChange(prognosis)
}

// signature combines the mtimes of every file the prognosis can be
// built from, so any change to the pre-spud file or any mid-well
// snapshot is detected without re-parsing TOML on every poll.
func (w *Watcher) signature() (string, error) {
	paths := []string{w.paths.PrognosisPath()}

	snapshot, err := latestSnapshot(w.paths.midWellDir())
	if err != nil {
		return "", err
	}
	if snapshot != "" {
		paths = append(paths, snapshot)
	}

	sig := ""
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		sig += filepath.Base(p) + ":" + info.ModTime().String() + ";"
	}
	return sig, nil
}
