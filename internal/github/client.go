// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "commit-miner/internal/errors"
	"commit-miner/internal/model"
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// A non-empty token is sent as a bearer token on every request. baseURL overrides
// the public API endpoint, e.g. for GitHub Enterprise.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(tc)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		logger: logger,
	}, nil
}

// SearchPage is one page of repository search results.
type SearchPage struct {
	Candidates []model.RepositoryCandidate
	// NextPage is 0 when the response advertised no further page.
	NextPage int
}

// SearchRepositories runs one page of a repository search and translates the hits
// to candidates. Hits are returned as-is; callers decide which ones are usable.
func (c *Client) SearchRepositories(ctx context.Context, query string, page, perPage int) (*SearchPage, error) {
	c.logger.Debug("Searching repositories", "query", query, "page", page, "per_page", perPage)

	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}
	result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	out := &SearchPage{NextPage: resp.NextPage}
	for _, repo := range result.Repositories {
		out.Candidates = append(out.Candidates, toCandidate(repo))
	}
	return out, nil
}

// CountCommits estimates the number of commits in a repository with a single request.
// It lists commits one per page and reads the last page number from the Link header,
// which then equals the commit count. Without a last relation the collection fits in
// that one response. Failures resolve to model.CommitCountUnknown.
func (c *Client) CountCommits(ctx context.Context, fullName string) model.CommitCount {
	logger := c.logger.With("repo", fullName)

	owner, name, err := splitFullName(fullName)
	if err != nil {
		logger.Warn("Cannot count commits", "error", err)
		return model.CommitCountUnknown
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict {
			// GitHub answers 409 for a repository without any commits.
			logger.Debug("Repository is empty")
			return 0
		}
		logger.Warn("Failed to get commit count", "error", err)
		return model.CommitCountUnknown
	}

	if hasLastRelation(resp.Header.Get("Link")) {
		if resp.LastPage <= 0 {
			logger.Warn("Failed to parse commit count from link header", "link", resp.Header.Get("Link"))
			return model.CommitCountUnknown
		}
		return model.CommitCount(resp.LastPage)
	}
	return model.CommitCount(len(commits))
}

func hasLastRelation(link string) bool {
	for _, part := range strings.Split(link, ",") {
		for _, param := range strings.Split(part, ";")[1:] {
			if strings.TrimSpace(param) == `rel="last"` {
				return true
			}
		}
	}
	return false
}

func splitFullName(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &custom_errors.ErrInvalidRepoFormat{Repo: fullName}
	}
	return parts[0], parts[1], nil
}

// toCandidate translates a github.Repository object to our internal model.RepositoryCandidate.
func toCandidate(r *github.Repository) model.RepositoryCandidate {
	return model.RepositoryCandidate{
		FullName:    r.GetFullName(),
		CloneURL:    r.GetCloneURL(),
		Stars:       r.GetStargazersCount(),
		CommitCount: model.CommitCountUnknown,
	}
}
