// Package aggregator keeps a rolling history of analytics statistics in
// PostgreSQL, one series per analyzer instance.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/postgres"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		instance_id TEXT NOT NULL,
		data        JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS analytics_snapshots_instance_captured
		ON analytics_snapshots (instance_id, captured_at DESC)`,
}

// DefaultRetain keeps a day of one-minute snapshots.
const DefaultRetain = 1440

// Store writes snapshots for one instance and trims that instance's
// history to the newest retain rows.
type Store struct {
	db       *postgres.Client
	instance string
	retain   int
	logger   *slog.Logger
}

func NewStore(db *postgres.Client, instance string, retain int) *Store {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &Store{
		db:       db,
		instance: instance,
		retain:   retain,
		logger:   slog.Default().With("component", "analytics-store", "instance_id", instance),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating analytics_snapshots: %w", err)
		}
	}
	return nil
}

// SaveSnapshot records stats and prunes rows beyond the retention window.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding analytics snapshot: %w", err)
	}
	if _, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (instance_id, data, captured_at) VALUES ($1, $2, $3)`,
		s.instance, data, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	res, err := s.db.DB.ExecContext(ctx,
		`DELETE FROM analytics_snapshots
		 WHERE instance_id = $1 AND id NOT IN (
			SELECT id FROM analytics_snapshots WHERE instance_id = $1
			ORDER BY captured_at DESC LIMIT $2)`,
		s.instance, s.retain,
	)
	if err != nil {
		return fmt.Errorf("pruning analytics snapshots: %w", err)
	}
	pruned, _ := res.RowsAffected()
	s.logger.Debug("analytics snapshot saved", "stats", stats.String(), "pruned", pruned)
	return nil
}

// LatestSnapshot returns this instance's newest snapshot, or nil when it
// has none.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.Stats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots WHERE instance_id = $1
		 ORDER BY captured_at DESC LIMIT 1`,
		s.instance,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &stats, nil
}

// StartPeriodicSave snapshots agg every interval and once more when ctx
// ends.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(final, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval, "retain", s.retain)
}
