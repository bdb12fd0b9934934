package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// PostgresConfig configures the optional secondary advisory sink.
// Grounded on teacher internal/infrastructure/db.Config (DSN + pool
// tuning + a query timeout applied per-call).
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultPostgresConfig mirrors teacher db.DefaultConfig's pool
// sizing.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// PostgresStore is an AdvisoryStore backed by a single
// advisories(ts bigint primary key, payload jsonb) table, grounded on
// teacher internal/persistence/postgres's repo shape (sqlx.DB +
// QueryRowxContext/SelectContext under a per-call context.WithTimeout).
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore opens and pings a connection per cfg.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("persistence: postgres DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorage, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrStorage, err)
	}

	return &PostgresStore{db: db, timeout: cfg.QueryTimeout}, nil
}

type advisoryRow struct {
	Ts      int64  `db:"ts"`
	Payload []byte `db:"payload"`
}

// Store upserts adv keyed by its timestamp.
func (s *PostgresStore) Store(ctx context.Context, adv types.StrategicAdvisory) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("persistence: marshal advisory: %w", err)
	}

	const query = `
		INSERT INTO advisories (ts, payload)
		VALUES ($1, $2)
		ON CONFLICT (ts) DO UPDATE SET payload = EXCLUDED.payload`

	if _, err := s.db.ExecContext(ctx, query, adv.Timestamp, payload); err != nil {
		return fmt.Errorf("%w: store advisory: %v", ErrStorage, err)
	}
	return nil
}

// Query returns advisories with Timestamp >= sinceUnix, oldest first.
func (s *PostgresStore) Query(ctx context.Context, sinceUnix int64, limit int) ([]types.StrategicAdvisory, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT ts, payload FROM advisories WHERE ts >= $1 ORDER BY ts ASC`
	args := []any{sinceUnix}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []advisoryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query advisories: %v", ErrStorage, err)
	}

	out := make([]types.StrategicAdvisory, 0, len(rows))
	for _, row := range rows {
		var adv types.StrategicAdvisory
		if err := json.Unmarshal(row.Payload, &adv); err != nil {
			return nil, fmt.Errorf("persistence: decode advisory at ts=%d: %w", row.Ts, err)
		}
		out = append(out, adv)
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
