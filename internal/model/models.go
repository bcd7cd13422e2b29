// internal/model/models.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	custom_errors "commit-miner/internal/errors"
)

// CommitFilter selects how a repository's commit count is compared to the threshold.
type CommitFilter string

const (
	CommitFilterNone    CommitFilter = "none"
	CommitFilterGreater CommitFilter = "greater"
	CommitFilterLess    CommitFilter = "less"
)

// ParseCommitFilter maps user input to a CommitFilter. An empty string means none.
func ParseCommitFilter(s string) (CommitFilter, error) {
	switch f := CommitFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", CommitFilterNone:
		return CommitFilterNone, nil
	case CommitFilterGreater, CommitFilterLess:
		return f, nil
	default:
		return "", &custom_errors.ErrInvalidCriteria{Field: "commit_filter", Reason: "must be one of none, greater, less"}
	}
}

// SearchCriteria is the immutable input of one research run.
type SearchCriteria struct {
	Domains          []string     `json:"domains"`
	MinStars         int          `json:"min_stars"`
	CommitFilter     CommitFilter `json:"commit_filter"`
	CommitThreshold  int          `json:"commit_threshold"`
	Keywords         []string     `json:"keywords"`
	AcceptCap        int          `json:"accept_cap"`
	MaxExamined      int          `json:"max_examined"`
	MaxModifiedFiles int          `json:"max_modified_files"`
}

// Validate reports the first field that makes the criteria unusable.
func (c SearchCriteria) Validate() error {
	if len(nonBlank(c.Domains)) == 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "domains", Reason: "at least one domain term is required"}
	}
	if c.MinStars < 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "min_stars", Reason: "must not be negative"}
	}
	if _, err := ParseCommitFilter(string(c.CommitFilter)); err != nil {
		return err
	}
	if len(nonBlank(c.Keywords)) == 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "keywords", Reason: "at least one keyword is required"}
	}
	if c.AcceptCap <= 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "accept_cap", Reason: "must be positive"}
	}
	if c.MaxExamined < 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "max_examined", Reason: "must not be negative"}
	}
	if c.MaxModifiedFiles < 0 {
		return &custom_errors.ErrInvalidCriteria{Field: "max_modified_files", Reason: "must not be negative"}
	}
	return nil
}

// Normalized returns a copy with the commit filter in canonical form. An
// unparsable filter is left as is for Validate to report.
func (c SearchCriteria) Normalized() SearchCriteria {
	if f, err := ParseCommitFilter(string(c.CommitFilter)); err == nil {
		c.CommitFilter = f
	}
	return c
}

// Accepts applies the commit-count filter, ignoring case in the filter name.
// An unknown count never satisfies a greater or less comparison.
func (c SearchCriteria) Accepts(count CommitCount) bool {
	switch c.Normalized().CommitFilter {
	case CommitFilterGreater:
		return count.Known() && int(count) > c.CommitThreshold
	case CommitFilterLess:
		return count.Known() && int(count) < c.CommitThreshold
	default:
		return true
	}
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// CommitCount is an estimated number of commits in a repository.
type CommitCount int

// CommitCountUnknown marks a count that could not be determined.
const CommitCountUnknown CommitCount = -1

func (c CommitCount) Known() bool { return c >= 0 }

// RepositoryCandidate is a search hit that is eligible for mining.
type RepositoryCandidate struct {
	FullName    string
	CloneURL    string
	Stars       int
	CommitCount CommitCount
}

// CommitRecord is one keyword-matching commit in the exported dataset.
type CommitRecord struct {
	RepositoryURL string `json:"repository_url"`
	CommitID      string `json:"commit_id"`
	AuthorName    string `json:"author_name"`
	Date          string `json:"date"`
	Message       string `json:"message"`
}

// Run identifies a single pipeline execution.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Criteria  SearchCriteria
}

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeExported        Outcome = "exported"
	OutcomeNoRepositories  Outcome = "no_repositories"
	OutcomeNoCommits       Outcome = "no_commits"
	OutcomeExportFailed    Outcome = "export_failed"
	OutcomeInvalidCriteria Outcome = "invalid_criteria"
)

// Message returns the user-facing description of the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeExported:
		return "Export completed successfully."
	case OutcomeNoRepositories:
		return "No repositories found matching the criteria."
	case OutcomeNoCommits:
		return "No relevant commits found."
	case OutcomeExportFailed:
		return "Error exporting commit records."
	case OutcomeInvalidCriteria:
		return "Invalid search criteria."
	default:
		return string(o)
	}
}
