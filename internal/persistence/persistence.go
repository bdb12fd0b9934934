// Package persistence stores strategic advisories, keyed by
// big-endian timestamp per spec.md §6. AdvisoryStore is the narrow
// capability interface spec.md §9 calls for ("store advisory"); two
// implementations exist — internal/persistence/boltlike (an embedded,
// append-only primary store) and Postgres (an optional secondary
// sink, via sqlx/lib/pq — see postgres.go).
package persistence

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// ErrStorage wraps any failure to persist or read back an advisory,
// letting the CLI entrypoint classify it as an internal error.
var ErrStorage = errors.New("persistence: storage failure")

// AdvisoryStore is implemented by every advisory sink.
type AdvisoryStore interface {
	// Store persists adv, keyed by its timestamp.
	Store(ctx context.Context, adv types.StrategicAdvisory) error
	// Query returns advisories with Timestamp >= sinceUnix, oldest
	// first, capped at limit (0 means no cap).
	Query(ctx context.Context, sinceUnix int64, limit int) ([]types.StrategicAdvisory, error)
	// Close releases any held resources.
	Close() error
}

// Fanout writes to Primary and, when Secondary is non-nil, also to
// Secondary; a Secondary failure is logged but never blocks the
// primary write path, matching spec.md §9's "extension point" framing
// for the optional Postgres sink.
type Fanout struct {
	Primary   AdvisoryStore
	Secondary AdvisoryStore
}

// Store writes to Primary first; a Secondary write is attempted only
// if Primary succeeds. A Secondary failure is logged and swallowed
// rather than failing the whole operation.
func (f *Fanout) Store(ctx context.Context, adv types.StrategicAdvisory) error {
	if err := f.Primary.Store(ctx, adv); err != nil {
		return err
	}
	if f.Secondary != nil {
		if err := f.Secondary.Store(ctx, adv); err != nil {
			log.Warn().Err(err).Msg("secondary advisory sink failed")
		}
	}
	return nil
}

// Query delegates to Primary, the system of record.
func (f *Fanout) Query(ctx context.Context, sinceUnix int64, limit int) ([]types.StrategicAdvisory, error) {
	return f.Primary.Query(ctx, sinceUnix, limit)
}

// Close closes both stores, returning Primary's error if both fail.
func (f *Fanout) Close() error {
	var secondaryErr error
	if f.Secondary != nil {
		secondaryErr = f.Secondary.Close()
	}
	if err := f.Primary.Close(); err != nil {
		return err
	}
	return secondaryErr
}
