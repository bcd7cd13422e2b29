// internal/store/queries.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"commit-miner/internal/model"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Querier is the set of statements the research store runs.
type Querier interface {
	CreateRun(ctx context.Context, arg CreateRunParams) error
	CreateCommitRecords(ctx context.Context, arg []CreateCommitRecordsParams) (int64, error)
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	ListCommitRecordsByRun(ctx context.Context, runID uuid.UUID) ([]model.CommitRecord, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Run is a persisted research run.
type Run struct {
	ID          uuid.UUID
	StartedAt   time.Time
	Criteria    model.SearchCriteria
	RecordCount int32
	CreatedAt   time.Time
}

type CreateRunParams struct {
	ID          uuid.UUID
	StartedAt   time.Time
	Criteria    model.SearchCriteria
	RecordCount int32
}

const createRun = `
INSERT INTO research_runs (id, started_at, criteria, record_count)
VALUES ($1, $2, $3, $4)`

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.Exec(ctx, createRun, arg.ID, arg.StartedAt, arg.Criteria, arg.RecordCount)
	return err
}

type CreateCommitRecordsParams struct {
	RunID         uuid.UUID
	Position      int32
	RepositoryURL string
	CommitID      string
	AuthorName    string
	CommitDate    string
	Message       string
}

func (q *Queries) CreateCommitRecords(ctx context.Context, arg []CreateCommitRecordsParams) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"commit_records"},
		[]string{"run_id", "position", "repository_url", "commit_id", "author_name", "commit_date", "message"},
		pgx.CopyFromSlice(len(arg), func(i int) ([]interface{}, error) {
			r := arg[i]
			return []interface{}{r.RunID, r.Position, r.RepositoryURL, r.CommitID, r.AuthorName, r.CommitDate, r.Message}, nil
		}),
	)
}

const getRun = `
SELECT id, started_at, criteria, record_count, created_at
FROM research_runs
WHERE id = $1`

func (q *Queries) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	var r Run
	err := q.db.QueryRow(ctx, getRun, id).Scan(&r.ID, &r.StartedAt, &r.Criteria, &r.RecordCount, &r.CreatedAt)
	return r, err
}

const listCommitRecordsByRun = `
SELECT repository_url, commit_id, author_name, commit_date, message
FROM commit_records
WHERE run_id = $1
ORDER BY position`

func (q *Queries) ListCommitRecordsByRun(ctx context.Context, runID uuid.UUID) ([]model.CommitRecord, error) {
	rows, err := q.db.Query(ctx, listCommitRecordsByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CommitRecord
	for rows.Next() {
		var r model.CommitRecord
		if err := rows.Scan(&r.RepositoryURL, &r.CommitID, &r.AuthorName, &r.Date, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
