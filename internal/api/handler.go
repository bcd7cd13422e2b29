// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	custom_errors "commit-miner/internal/errors"
	"commit-miner/internal/model"
	"commit-miner/internal/pipeline"
	"commit-miner/internal/store"
)

// Runner executes a research run under a caller-chosen id.
type Runner interface {
	RunWithID(ctx context.Context, id uuid.UUID, criteria model.SearchCriteria) pipeline.Result
}

// RunStore reads runs persisted by earlier processes.
type RunStore interface {
	GetRun(ctx context.Context, id uuid.UUID) (store.Run, error)
	ListCommitRecordsByRun(ctx context.Context, runID uuid.UUID) ([]model.CommitRecord, error)
}

const (
	statusRunning = "running"
	statusDone    = "done"
)

type runState struct {
	status string
	result pipeline.Result
}

// Handler is the container for API dependencies.
type Handler struct {
	runner   Runner
	db       RunStore // nil when no database is configured
	defaults model.SearchCriteria
	logger   *slog.Logger
	baseCtx  context.Context

	mu      sync.Mutex
	busy    bool
	runs    map[uuid.UUID]*runState
	running sync.WaitGroup
}

// NewHandler creates a Handler. Runs started through it live as long as baseCtx.
// AcceptCap and MaxExamined in defaults fill in requests that omit them.
func NewHandler(baseCtx context.Context, runner Runner, db RunStore, defaults model.SearchCriteria, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		db:       db,
		defaults: defaults,
		logger:   logger,
		baseCtx:  baseCtx,
		runs:     make(map[uuid.UUID]*runState),
	}
}

// NewRouter creates and configures a new chi router with all API routes.
// Without allowedOrigins every origin is accepted.
func NewRouter(h *Handler, allowedOrigins ...string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", h.startRun)
		r.Get("/runs/{id}", h.getRun)
		r.Get("/runs/{id}/commits", h.getRunCommits)
	})

	return r
}

// Wait blocks until every started run has finished.
func (h *Handler) Wait() {
	h.running.Wait()
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runResponse struct {
	ID           uuid.UUID     `json:"id"`
	Status       string        `json:"status"`
	Outcome      model.Outcome `json:"outcome,omitempty"`
	Message      string        `json:"message,omitempty"`
	Repositories int           `json:"repositories"`
	Failed       int           `json:"failed_repositories"`
	Records      int           `json:"records"`
	Error        string        `json:"error,omitempty"`
}

// runRequest is the body of POST /v1/runs. MaxExamined is a pointer so an
// explicit 0 (no budget) can be told apart from an omitted field.
type runRequest struct {
	model.SearchCriteria
	MaxExamined *int `json:"max_examined"`
}

// startRun validates the criteria and starts a run in the background.
// POST /v1/runs
func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	criteria := req.SearchCriteria.Normalized()
	if criteria.AcceptCap == 0 {
		criteria.AcceptCap = h.defaults.AcceptCap
	}
	criteria.MaxExamined = h.defaults.MaxExamined
	if req.MaxExamined != nil {
		criteria.MaxExamined = *req.MaxExamined
	}
	if err := criteria.Validate(); err != nil {
		var invalid *custom_errors.ErrInvalidCriteria
		if errors.As(err, &invalid) {
			respondWithError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid search criteria")
		return
	}

	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		respondWithError(w, http.StatusConflict, "A run is already in progress")
		return
	}
	id := uuid.New()
	h.busy = true
	h.runs[id] = &runState{status: statusRunning}
	h.running.Add(1)
	h.mu.Unlock()

	go h.execute(id, criteria)

	respondWithJSON(w, http.StatusAccepted, runResponse{ID: id, Status: statusRunning})
}

func (h *Handler) execute(id uuid.UUID, criteria model.SearchCriteria) {
	defer h.running.Done()

	res := h.runner.RunWithID(h.baseCtx, id, criteria)

	h.mu.Lock()
	h.runs[id] = &runState{status: statusDone, result: res}
	h.busy = false
	h.mu.Unlock()
}

// getRun reports the status of a run.
// GET /v1/runs/{id}
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRunID(w, r)
	if !ok {
		return
	}

	if state, found := h.lookup(id); found {
		respondWithJSON(w, http.StatusOK, toRunResponse(id, state))
		return
	}

	if h.db == nil {
		respondWithError(w, http.StatusNotFound, "Run not found")
		return
	}
	stored, err := h.db.GetRun(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, runResponse{
		ID:      stored.ID,
		Status:  statusDone,
		Outcome: model.OutcomeExported,
		Message: model.OutcomeExported.Message(),
		Records: int(stored.RecordCount),
	})
}

// getRunCommits returns the commit records of a finished run.
// GET /v1/runs/{id}/commits
func (h *Handler) getRunCommits(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRunID(w, r)
	if !ok {
		return
	}

	if state, found := h.lookup(id); found {
		if state.status != statusDone {
			respondWithError(w, http.StatusConflict, "Run is still in progress")
			return
		}
		records := state.result.Records
		if records == nil {
			records = []model.CommitRecord{}
		}
		respondWithJSON(w, http.StatusOK, records)
		return
	}

	if h.db == nil {
		respondWithError(w, http.StatusNotFound, "Run not found")
		return
	}
	if _, err := h.db.GetRun(r.Context(), id); err != nil {
		h.respondStoreError(w, err)
		return
	}
	records, err := h.db.ListCommitRecordsByRun(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []model.CommitRecord{}
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *Handler) lookup(id uuid.UUID) (runState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.runs[id]
	if !ok {
		return runState{}, false
	}
	return *state, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		respondWithError(w, http.StatusNotFound, "Run not found")
		return
	}
	h.logger.Error("Failed to read run from database", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

func parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid run id")
		return uuid.UUID{}, false
	}
	return id, true
}

func toRunResponse(id uuid.UUID, state runState) runResponse {
	resp := runResponse{ID: id, Status: state.status}
	if state.status != statusDone {
		return resp
	}
	res := state.result
	resp.Outcome = res.Outcome
	resp.Message = res.Message()
	resp.Repositories = res.Repositories
	resp.Failed = res.Failed
	resp.Records = len(res.Records)
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp
}
