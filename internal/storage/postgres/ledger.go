// Package postgres keeps a ledger of finished enrichment runs.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"gptenrich/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned by Get for an unknown run.
var ErrNotFound = errors.New("run not found")

// DB is the subset of pgxpool.Pool used by the ledger.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Ledger struct {
	db DB
}

func NewLedger(db DB) *Ledger {
	return &Ledger{db: db}
}

// Connect opens a pool and checks the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

const insertRun = `
INSERT INTO enrich_runs (
    id, recipe, mode, source_bucket, source_key, output_key,
    rows_total, succeeded, failed, status, error, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`

// Record stores s. Recording the same run twice is a no-op.
func (l *Ledger) Record(ctx context.Context, s *models.RunSummary) error {
	_, err := l.db.Exec(ctx, insertRun,
		s.ID.String(), s.Recipe, s.Mode, s.SourceBucket, s.SourceKey, s.OutputKey,
		s.Rows, s.Succeeded, s.Failed, string(s.Status), s.Error, s.StartedAt, s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", s.ID, err)
	}
	return nil
}

const selectRun = `
SELECT id::text, recipe, mode, source_bucket, source_key, output_key,
       rows_total, succeeded, failed, status, error, started_at, finished_at
FROM enrich_runs WHERE id = $1`

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.RunSummary, error) {
	var (
		s      models.RunSummary
		rawID  string
		status string
	)
	err := l.db.QueryRow(ctx, selectRun, id.String()).Scan(
		&rawID, &s.Recipe, &s.Mode, &s.SourceBucket, &s.SourceKey, &s.OutputKey,
		&s.Rows, &s.Succeeded, &s.Failed, &status, &s.Error, &s.StartedAt, &s.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if s.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	s.Status = models.RunStatus(status)
	return &s, nil
}
