// internal/miner/miner.go
package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"commit-miner/internal/model"
)

// Cloner fetches a remote repository into dir.
type Cloner interface {
	Clone(ctx context.Context, dir, url string) (*git.Repository, error)
}

// BareCloner clones history only, without a working tree.
type BareCloner struct {
	Token string
}

func (b BareCloner) Clone(ctx context.Context, dir, url string) (*git.Repository, error) {
	opts := &git.CloneOptions{
		URL:  url,
		Tags: git.NoTags,
	}
	if b.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: b.Token}
	}
	return git.PlainCloneContext(ctx, dir, true, opts)
}

// Filter selects the commits kept from a repository's history.
type Filter struct {
	Keywords []string
	// MaxModifiedFiles drops commits touching more files than this. 0 disables it.
	MaxModifiedFiles int
}

// Result holds the records mined from one repository. When Err is set, Records
// contains whatever was collected before the failure.
type Result struct {
	Records []model.CommitRecord
	Scanned int
	Err     error
}

// Miner clones repositories under a work root and extracts keyword-matching commits.
type Miner struct {
	cloner  Cloner
	workDir string
	cleanup bool
	logger  *slog.Logger
}

// NewMiner creates a new Miner. With cleanup set, each clone is removed once mined.
func NewMiner(cloner Cloner, workDir string, cleanup bool, logger *slog.Logger) *Miner {
	return &Miner{
		cloner:  cloner,
		workDir: workDir,
		cleanup: cleanup,
		logger:  logger,
	}
}

// Mine clones the candidate and returns its matching commits in log order, newest first.
// It never panics; every failure is reported through Result.Err.
func (m *Miner) Mine(ctx context.Context, c model.RepositoryCandidate, f Filter) (res Result) {
	logger := m.logger.With("repo", c.FullName, "clone_url", c.CloneURL)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while mining %s: %v", c.FullName, r)
		}
		if res.Err != nil {
			logger.Error("Error processing repository", "error", res.Err, "matched", len(res.Records))
			return
		}
		logger.Info("Repository mined",
			"scanned", res.Scanned,
			"matched", len(res.Records),
			"duration", time.Since(start).String())
	}()

	dir, err := m.workingDir(c.CloneURL)
	if err != nil {
		res.Err = err
		return res
	}

	if err := removeTree(dir); err != nil {
		res.Err = fmt.Errorf("remove stale clone %s: %w", dir, err)
		return res
	}
	if m.cleanup {
		defer func() {
			if err := removeTree(dir); err != nil {
				logger.Warn("Failed to remove clone", "dir", dir, "error", err)
			}
		}()
	}

	repo, err := m.cloner.Clone(ctx, dir, c.CloneURL)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		logger.Info("Remote repository is empty")
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("clone %s: %w", c.CloneURL, err)
		return res
	}
	logger.Debug("Cloned repository", "dir", dir)

	iter, err := repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		res.Err = fmt.Errorf("read log: %w", err)
		return res
	}

	match := newMatcher(f.Keywords)
	webURL := strings.TrimSuffix(c.CloneURL, ".git")
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Scanned++
		if !match.Match(commit.Message) {
			return nil
		}
		if f.MaxModifiedFiles > 0 {
			stats, err := commit.Stats()
			if err != nil {
				return fmt.Errorf("diff stats for %s: %w", commit.Hash, err)
			}
			if len(stats) > f.MaxModifiedFiles {
				return nil
			}
		}
		res.Records = append(res.Records, toRecord(webURL, commit))
		return nil
	})
	if err != nil {
		res.Err = fmt.Errorf("walk log: %w", err)
	}
	return res
}

func (m *Miner) workingDir(cloneURL string) (string, error) {
	name := filepath.FromSlash(LocalName(cloneURL))
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("clone URL %q does not map to a directory under %s", cloneURL, m.workDir)
	}
	return filepath.Join(m.workDir, name), nil
}

func toRecord(webURL string, c *object.Commit) model.CommitRecord {
	id := c.Hash.String()
	return model.CommitRecord{
		RepositoryURL: webURL + "/commit/" + id,
		CommitID:      id,
		AuthorName:    c.Author.Name,
		Date:          c.Author.When.Format(time.RFC3339),
		Message:       c.Message,
	}
}
