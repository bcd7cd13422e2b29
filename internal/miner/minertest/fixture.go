// internal/miner/minertest/fixture.go

// Package minertest provides a local stand-in for network clones.
package minertest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// BaseTime is the author time of the first fixture commit; each later commit is one hour newer.
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Commit describes one fixture commit. Files is the number of new files it adds (at least one).
type Commit struct {
	Message string
	Files   int
}

// FixtureCloner builds a repository with the configured history in place of a clone.
// Repositories listed in Failures fail with the mapped error instead.
type FixtureCloner struct {
	Commits  []Commit
	Failures map[string]error
	Calls    int
}

func (f *FixtureCloner) Clone(ctx context.Context, dir, url string) (*git.Repository, error) {
	f.Calls++
	if err, ok := f.Failures[url]; ok {
		return nil, err
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	for i, c := range f.Commits {
		files := max(c.Files, 1)
		for j := 0; j < files; j++ {
			name := fmt.Sprintf("file-%d-%d.txt", i, j)
			if err := os.WriteFile(filepath.Join(dir, name), []byte(c.Message), 0o644); err != nil {
				return nil, err
			}
			if _, err := wt.Add(name); err != nil {
				return nil, err
			}
		}
		_, err := wt.Commit(c.Message, &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "t@t.com", When: BaseTime.Add(time.Duration(i) * time.Hour)},
		})
		if err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// FiveCommits is a history where the second commit mentions "Fix" and the fourth "security".
func FiveCommits() []Commit {
	return []Commit{
		{Message: "initial import"},
		{Message: "Fix crash on empty input"},
		{Message: "update docs"},
		{Message: "harden security headers"},
		{Message: "bump version"},
	}
}
