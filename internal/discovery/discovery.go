// internal/discovery/discovery.go
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"commit-miner/internal/github"
	"commit-miner/internal/model"
)

// PageSize is the number of search hits requested per page.
const PageSize = 50

// Searcher runs one page of a repository search.
type Searcher interface {
	SearchRepositories(ctx context.Context, query string, page, perPage int) (*github.SearchPage, error)
}

// CountResolver estimates the commit count of a repository.
type CountResolver interface {
	CountCommits(ctx context.Context, fullName string) model.CommitCount
}

// StopReason records why pagination ended.
type StopReason string

const (
	StopCapReached     StopReason = "cap_reached"
	StopEmptyPage      StopReason = "empty_page"
	StopLastPage       StopReason = "last_page"
	StopBudgetSpent    StopReason = "budget_spent"
	StopRequestFailed  StopReason = "request_failed"
	StopContextExpired StopReason = "context_expired"
)

// Result is the outcome of a discovery pass. Err is set when pagination was cut
// short by a failure; Candidates still holds everything accepted before it.
type Result struct {
	Candidates []model.RepositoryCandidate
	Examined   int
	Pages      int
	StopReason StopReason
	Err        error
}

// Discoverer pages through repository search results and keeps the ones whose
// commit count passes the criteria filter.
type Discoverer struct {
	searcher Searcher
	resolver CountResolver
	logger   *slog.Logger
}

// NewDiscoverer creates a new Discoverer instance.
func NewDiscoverer(searcher Searcher, resolver CountResolver, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		searcher: searcher,
		resolver: resolver,
		logger:   logger,
	}
}

// Discover returns at most criteria.AcceptCap candidates in page-scan order.
func (d *Discoverer) Discover(ctx context.Context, criteria model.SearchCriteria) Result {
	query := BuildQuery(criteria.Domains, criteria.MinStars)
	logger := d.logger.With("query", query, "accept_cap", criteria.AcceptCap)
	logger.Info("Starting repository discovery")

	res := Result{}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			res.StopReason, res.Err = StopContextExpired, err
			break
		}

		sp, err := d.searcher.SearchRepositories(ctx, query, page, PageSize)
		if err != nil {
			logger.Error("Repository search failed", "page", page, "error", err)
			res.StopReason, res.Err = StopRequestFailed, fmt.Errorf("search page %d: %w", page, err)
			break
		}
		res.Pages++
		if len(sp.Candidates) == 0 {
			res.StopReason = StopEmptyPage
			break
		}

		if d.scanPage(ctx, criteria, sp.Candidates, &res) {
			break
		}
		if criteria.MaxExamined > 0 && res.Examined >= criteria.MaxExamined {
			res.StopReason = StopBudgetSpent
			break
		}
		if sp.NextPage == 0 {
			res.StopReason = StopLastPage
			break
		}
	}

	logger.Info("Repository discovery finished",
		"accepted", len(res.Candidates),
		"examined", res.Examined,
		"pages", res.Pages,
		"stop_reason", res.StopReason)
	return res
}

// scanPage applies the filters to one page of hits and reports whether discovery must stop.
func (d *Discoverer) scanPage(ctx context.Context, criteria model.SearchCriteria, hits []model.RepositoryCandidate, res *Result) bool {
	for _, c := range hits {
		if len(res.Candidates) >= criteria.AcceptCap {
			res.StopReason = StopCapReached
			return true
		}
		if criteria.MaxExamined > 0 && res.Examined >= criteria.MaxExamined {
			res.StopReason = StopBudgetSpent
			return true
		}
		res.Examined++

		if c.FullName == "" || c.CloneURL == "" {
			d.logger.Debug("Skipping search hit without name or clone URL", "full_name", c.FullName, "clone_url", c.CloneURL)
			continue
		}

		c.CommitCount = d.resolver.CountCommits(ctx, c.FullName)
		logger := d.logger.With("repo", c.FullName, "commits", int(c.CommitCount))
		if !c.CommitCount.Known() {
			logger.Warn("Commit count unknown")
		}
		if !criteria.Accepts(c.CommitCount) {
			logger.Info("Skipping repository", "filter", criteria.CommitFilter, "threshold", criteria.CommitThreshold)
			continue
		}

		logger.Info("Adding repository")
		res.Candidates = append(res.Candidates, c)
	}

	if len(res.Candidates) >= criteria.AcceptCap {
		res.StopReason = StopCapReached
		return true
	}
	return false
}

// BuildQuery combines the domain terms with OR and adds the star qualifier.
func BuildQuery(domains []string, minStars int) string {
	terms := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.ContainsAny(d, " \t") {
			d = `"` + d + `"`
		}
		terms = append(terms, d)
	}
	return fmt.Sprintf("%s stars:>%d", strings.Join(terms, " OR "), minStars)
}
