// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"commit-miner/internal/discovery"
	"commit-miner/internal/miner"
	"commit-miner/internal/model"
)

// Discoverer finds the repositories a run will mine.
type Discoverer interface {
	Discover(ctx context.Context, criteria model.SearchCriteria) discovery.Result
}

// Miner extracts matching commits from one repository.
type Miner interface {
	Mine(ctx context.Context, c model.RepositoryCandidate, f miner.Filter) miner.Result
}

// Sink consumes the aggregated records of a run.
type Sink interface {
	Export(ctx context.Context, run model.Run, records []model.CommitRecord) error
}

// Result is the terminal state of a run.
type Result struct {
	Run          model.Run
	Outcome      model.Outcome
	Repositories int
	Failed       int
	Records      []model.CommitRecord
	// Err carries the cause of export_failed and invalid_criteria outcomes.
	Err error
}

func (r Result) Message() string { return r.Outcome.Message() }

// Driver orchestrates discovery, mining and export.
type Driver struct {
	discoverer Discoverer
	miner      Miner
	sink       Sink
	logger     *slog.Logger
	now        func() time.Time
}

// NewDriver creates a new Driver instance.
func NewDriver(d Discoverer, m Miner, sink Sink, logger *slog.Logger) *Driver {
	return &Driver{
		discoverer: d,
		miner:      m,
		sink:       sink,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one research run with a fresh run id.
func (d *Driver) Run(ctx context.Context, criteria model.SearchCriteria) Result {
	return d.RunWithID(ctx, uuid.New(), criteria)
}

// RunWithID executes one research run. Repositories are mined one after the
// other; a failing repository is logged and skipped.
func (d *Driver) RunWithID(ctx context.Context, id uuid.UUID, criteria model.SearchCriteria) Result {
	criteria = criteria.Normalized()
	run := model.Run{ID: id, StartedAt: d.now(), Criteria: criteria}
	logger := d.logger.With("run_id", run.ID)
	res := Result{Run: run}

	if err := criteria.Validate(); err != nil {
		logger.Warn("Rejected search criteria", "error", err)
		res.Outcome, res.Err = model.OutcomeInvalidCriteria, err
		return res
	}

	found := d.discoverer.Discover(ctx, criteria)
	if found.Err != nil {
		logger.Warn("Discovery ended early, continuing with partial results", "error", found.Err, "accepted", len(found.Candidates))
	}
	res.Repositories = len(found.Candidates)
	if len(found.Candidates) == 0 {
		logger.Warn("No repositories found matching the criteria",
			"domains", criteria.Domains,
			"min_stars", criteria.MinStars,
			"commit_filter", criteria.CommitFilter,
			"commit_threshold", criteria.CommitThreshold)
		res.Outcome = model.OutcomeNoRepositories
		return res
	}

	logger.Info("Processing repositories", "count", len(found.Candidates))
	filter := miner.Filter{Keywords: criteria.Keywords, MaxModifiedFiles: criteria.MaxModifiedFiles}
	for _, c := range found.Candidates {
		if ctx.Err() != nil {
			logger.Warn("Run cancelled, skipping remaining repositories", "reason", ctx.Err())
			break
		}
		mined := d.miner.Mine(ctx, c, filter)
		if mined.Err != nil {
			res.Failed++
			logger.Error("Error processing repository", "repo", c.FullName, "error", mined.Err, "partial", len(mined.Records))
		}
		res.Records = append(res.Records, mined.Records...)
		logger.Info("Found relevant commits", "repo", c.FullName, "count", len(mined.Records))
	}

	if len(res.Records) == 0 {
		logger.Warn("No relevant commits found", "repositories", len(found.Candidates))
		res.Outcome = model.OutcomeNoCommits
		return res
	}

	if err := d.sink.Export(ctx, run, res.Records); err != nil {
		logger.Error("Error exporting commit records", "error", err)
		res.Outcome, res.Err = model.OutcomeExportFailed, err
		return res
	}

	logger.Info("Export completed",
		"commits", len(res.Records),
		"repositories", len(found.Candidates),
		"failed_repositories", res.Failed,
		"duration", d.now().Sub(run.StartedAt).String())
	res.Outcome = model.OutcomeExported
	return res
}
