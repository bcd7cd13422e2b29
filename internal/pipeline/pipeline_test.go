// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"commit-miner/internal/discovery"
	"commit-miner/internal/github"
	"commit-miner/internal/miner"
	"commit-miner/internal/miner/minertest"
	"commit-miner/internal/model"
)

type MockDiscoverer struct {
	mock.Mock
}

func (m *MockDiscoverer) Discover(ctx context.Context, criteria model.SearchCriteria) discovery.Result {
	args := m.Called(ctx, criteria)
	return args.Get(0).(discovery.Result)
}

type MockMiner struct {
	mock.Mock
}

func (m *MockMiner) Mine(ctx context.Context, c model.RepositoryCandidate, f miner.Filter) miner.Result {
	args := m.Called(ctx, c, f)
	return args.Get(0).(miner.Result)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Export(ctx context.Context, run model.Run, records []model.CommitRecord) error {
	args := m.Called(ctx, run, records)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func validCriteria() model.SearchCriteria {
	return model.SearchCriteria{
		Domains:      []string{"security"},
		CommitFilter: model.CommitFilterNone,
		Keywords:     []string{"security", "fix"},
		AcceptCap:    5,
	}
}

func TestDriver_Run(t *testing.T) {
	ctx := context.Background()
	repoA := model.RepositoryCandidate{FullName: "a/one", CloneURL: "https://github.com/a/one.git"}
	repoB := model.RepositoryCandidate{FullName: "b/two", CloneURL: "https://github.com/b/two.git"}
	recA := model.CommitRecord{CommitID: "a1", Message: "fix"}
	recB := model.CommitRecord{CommitID: "b1", Message: "security"}

	t.Run("rejects invalid criteria before discovery", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		criteria := validCriteria()
		criteria.Keywords = nil

		res := NewDriver(d, m, s, testLogger()).Run(ctx, criteria)

		assert.Equal(t, model.OutcomeInvalidCriteria, res.Outcome)
		assert.Error(t, res.Err)
		d.AssertNotCalled(t, "Discover", mock.Anything, mock.Anything)
	})

	t.Run("reports no repositories when discovery is empty", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		d.On("Discover", ctx, mock.Anything).Return(discovery.Result{Err: errors.New("search failed")}).Once()

		res := NewDriver(d, m, s, testLogger()).Run(ctx, validCriteria())

		assert.Equal(t, model.OutcomeNoRepositories, res.Outcome)
		assert.Equal(t, "No repositories found matching the criteria.", res.Message())
		assert.NoError(t, res.Err)
		m.AssertNotCalled(t, "Mine", mock.Anything, mock.Anything, mock.Anything)
		s.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("keeps mining after a failed repository and exports in order", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		d.On("Discover", ctx, mock.Anything).Return(discovery.Result{Candidates: []model.RepositoryCandidate{repoA, repoB}}).Once()
		m.On("Mine", ctx, repoA, mock.Anything).Return(miner.Result{Records: []model.CommitRecord{recA}, Err: errors.New("walk failed")}).Once()
		m.On("Mine", ctx, repoB, mock.Anything).Return(miner.Result{Records: []model.CommitRecord{recB}}).Once()
		s.On("Export", ctx, mock.Anything, []model.CommitRecord{recA, recB}).Return(nil).Once()

		res := NewDriver(d, m, s, testLogger()).Run(ctx, validCriteria())

		assert.Equal(t, model.OutcomeExported, res.Outcome)
		assert.Equal(t, 2, res.Repositories)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, []model.CommitRecord{recA, recB}, res.Records)
		m.AssertExpectations(t)
		s.AssertExpectations(t)
	})

	t.Run("reports no commits when nothing matched", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		d.On("Discover", ctx, mock.Anything).Return(discovery.Result{Candidates: []model.RepositoryCandidate{repoA}}).Once()
		m.On("Mine", ctx, repoA, mock.Anything).Return(miner.Result{Scanned: 10}).Once()

		res := NewDriver(d, m, s, testLogger()).Run(ctx, validCriteria())

		assert.Equal(t, model.OutcomeNoCommits, res.Outcome)
		s.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces a sink failure as export failed", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		sinkErr := errors.New("disk full")
		d.On("Discover", ctx, mock.Anything).Return(discovery.Result{Candidates: []model.RepositoryCandidate{repoA}}).Once()
		m.On("Mine", ctx, repoA, mock.Anything).Return(miner.Result{Records: []model.CommitRecord{recA}}).Once()
		s.On("Export", ctx, mock.Anything, mock.Anything).Return(sinkErr).Once()

		res := NewDriver(d, m, s, testLogger()).Run(ctx, validCriteria())

		assert.Equal(t, model.OutcomeExportFailed, res.Outcome)
		assert.ErrorIs(t, res.Err, sinkErr)
		assert.NotEqual(t, model.OutcomeNoCommits, res.Outcome)
	})

	t.Run("passes the keyword filter to the miner", func(t *testing.T) {
		d, m, s := new(MockDiscoverer), new(MockMiner), new(MockSink)
		criteria := validCriteria()
		criteria.MaxModifiedFiles = 7
		d.On("Discover", ctx, criteria).Return(discovery.Result{Candidates: []model.RepositoryCandidate{repoA}}).Once()
		m.On("Mine", ctx, repoA, miner.Filter{Keywords: criteria.Keywords, MaxModifiedFiles: 7}).Return(miner.Result{}).Once()

		NewDriver(d, m, s, testLogger()).Run(ctx, criteria)

		m.AssertExpectations(t)
	})
}

type captureSink struct {
	run     model.Run
	records []model.CommitRecord
}

func (c *captureSink) Export(ctx context.Context, run model.Run, records []model.CommitRecord) error {
	c.run, c.records = run, records
	return nil
}

func TestDriver_EndToEnd(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/repositories":
			assert.Equal(t, "security OR privacy stars:>10", r.URL.Query().Get("q"))
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"total_count": 2, "items": [
				{"full_name": "a/no-url"},
				{"full_name": "b/kept", "clone_url": "https://github.com/b/kept.git"}
			]}`)
		case "/repos/b/kept/commits":
			w.Header().Set("Link", fmt.Sprintf(
				`<http://%[1]s/repos/b/kept/commits?per_page=1&page=2>; rel="next", <http://%[1]s/repos/b/kept/commits?per_page=1&page=12>; rel="last"`, r.Host))
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `[{"sha": "abc"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	logger := testLogger()
	ghClient, err := github.NewClient("", server.URL, logger)
	require.NoError(t, err)

	cloner := &minertest.FixtureCloner{Commits: minertest.FiveCommits()}
	sink := &captureSink{}
	driver := NewDriver(
		discovery.NewDiscoverer(ghClient, ghClient, logger),
		miner.NewMiner(cloner, t.TempDir(), false, logger),
		sink,
		logger,
	)

	res := driver.Run(context.Background(), model.SearchCriteria{
		Domains:         []string{"security", "privacy"},
		MinStars:        10,
		CommitFilter:    model.CommitFilterGreater,
		CommitThreshold: 10,
		Keywords:        []string{"security", "fix"},
		AcceptCap:       50,
	})

	require.Equal(t, model.OutcomeExported, res.Outcome)
	assert.Equal(t, 1, res.Repositories)
	assert.Equal(t, 1, cloner.Calls)
	require.Len(t, sink.records, 2)
	assert.Equal(t, "harden security headers", sink.records[0].Message)
	assert.Equal(t, "Fix crash on empty input", sink.records[1].Message)
	assert.Equal(t, res.Run.ID, sink.run.ID)
}
