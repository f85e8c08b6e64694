// Package store is a thin optional result sink for a day's Assignments,
// grounded on shared/pkg/database. Wired only from cmd/dispatchsim: the
// engine itself never imports this package, keeping it decoupled from
// persistence per spec.md §1's framing of sinks as an external
// collaborator.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draymaster/dispatchsim/internal/domain"
)

// Config holds the Postgres connection parameters for the sink.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Store wraps a pgx connection pool used to persist Assignment rows.
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool and verifies it with a ping.
func New(ctx context.Context, cfg Config) (*Store, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveAssignments persists one day's Assignments into a single
// assignments table that carries the day as a column; a row whose numos is
// already stored is skipped (ON CONFLICT DO NOTHING).
func (s *Store) SaveAssignments(ctx context.Context, assignments []domain.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	for _, a := range assignments {
		_, err := tx.Exec(ctx, `
			INSERT INTO assignments
				(numos, crew_id, day, arrival, finish, base_return, travel_source, sequence, truncated_shift)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (numos) DO NOTHING`,
			a.NumOS, a.CrewID, a.Day, a.Arrival, a.Finish, a.BaseReturn, string(a.TravelSource), a.Sequence, a.TruncatedShift,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert assignment %d: %w", a.NumOS, err)
		}
	}

	return tx.Commit(ctx)
}
