// internal/store/store.go
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"commit-miner/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations.
func Migrate(dbURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Sink persists each run and its records in one transaction.
type Sink struct {
	dbpool *pgxpool.Pool
	logger *slog.Logger
}

func NewSink(dbpool *pgxpool.Pool, logger *slog.Logger) *Sink {
	return &Sink{dbpool: dbpool, logger: logger}
}

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) Export(ctx context.Context, run model.Run, records []model.CommitRecord) error {
	tx, err := s.dbpool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	n, err := saveRun(ctx, New(tx), run, records)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.logger.Info("Stored commit records", "run_id", run.ID, "count", n)
	return nil
}

func saveRun(ctx context.Context, q Querier, run model.Run, records []model.CommitRecord) (int64, error) {
	err := q.CreateRun(ctx, CreateRunParams{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		Criteria:    run.Criteria,
		RecordCount: int32(len(records)),
	})
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}

	n, err := q.CreateCommitRecords(ctx, prepareRecordBulkInsert(run, records))
	if err != nil {
		return 0, fmt.Errorf("insert commit records: %w", err)
	}
	if n != int64(len(records)) {
		return n, fmt.Errorf("inserted %d of %d commit records", n, len(records))
	}
	return n, nil
}

func prepareRecordBulkInsert(run model.Run, records []model.CommitRecord) []CreateCommitRecordsParams {
	params := make([]CreateCommitRecordsParams, len(records))
	for i, r := range records {
		params[i] = CreateCommitRecordsParams{
			RunID:         run.ID,
			Position:      int32(i),
			RepositoryURL: r.RepositoryURL,
			CommitID:      r.CommitID,
			AuthorName:    r.AuthorName,
			CommitDate:    r.Date,
			Message:       r.Message,
		}
	}
	return params
}
