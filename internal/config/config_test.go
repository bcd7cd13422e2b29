// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commit-miner/internal/model"
)

func TestLoadConfig(t *testing.T) {
	t.Run("reads environment variables and applies defaults", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "secret")
		t.Setenv("SEARCH_DOMAINS", "security, privacy")
		t.Setenv("SEARCH_KEYWORDS", "fix,bug ,")
		t.Setenv("COMMIT_FILTER", "greater")
		t.Setenv("COMMIT_THRESHOLD", "10")

		cfg, err := LoadConfig(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "tempRepos", cfg.WorkDir)
		assert.Equal(t, "output.xlsx", cfg.OutputPath)
		assert.False(t, cfg.CleanupAfterMine)

		criteria := cfg.Criteria()
		assert.Equal(t, []string{"security", "privacy"}, criteria.Domains)
		assert.Equal(t, []string{"fix", "bug"}, criteria.Keywords)
		assert.Equal(t, model.CommitFilterGreater, criteria.CommitFilter)
		assert.Equal(t, 10, criteria.CommitThreshold)
		assert.Equal(t, 50, criteria.AcceptCap)
		assert.Equal(t, 1000, criteria.MaxExamined)
		assert.NoError(t, criteria.Validate())
	})

	t.Run("reads a .env file", func(t *testing.T) {
		// Empty variables are ignored, so the file value wins.
		t.Setenv("GITHUB_TOKEN", "")
		dir := t.TempDir()
		content := "GITHUB_TOKEN=from-file\nACCEPT_CAP=5\nCLEANUP_AFTER_MINE=true\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

		cfg, err := LoadConfig(dir)

		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.GithubToken)
		assert.Equal(t, 5, cfg.AcceptCap)
		assert.True(t, cfg.CleanupAfterMine)
	})

	t.Run("requires a GitHub token", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")

		_, err := LoadConfig(t.TempDir())

		assert.EqualError(t, err, "GITHUB_TOKEN is a required configuration field")
	})

	t.Run("rejects an unknown commit filter", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "secret")
		t.Setenv("COMMIT_FILTER", "between")

		_, err := LoadConfig(t.TempDir())

		assert.Error(t, err)
	})
}
