// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"commit-miner/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string   `mapstructure:"LOG_LEVEL"`
	GithubToken      string   `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL     string   `mapstructure:"GITHUB_API_URL"`
	WorkDir          string   `mapstructure:"WORK_DIR"`
	OutputPath       string   `mapstructure:"OUTPUT_PATH"`
	DBURL            string   `mapstructure:"DB_URL"`
	HTTPAddr         string   `mapstructure:"HTTP_ADDR"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	CleanupAfterMine bool     `mapstructure:"CLEANUP_AFTER_MINE"`

	SearchDomains    []string `mapstructure:"SEARCH_DOMAINS"`
	SearchKeywords   []string `mapstructure:"SEARCH_KEYWORDS"`
	MinStars         int      `mapstructure:"MIN_STARS"`
	CommitFilter     string   `mapstructure:"COMMIT_FILTER"`
	CommitThreshold  int      `mapstructure:"COMMIT_THRESHOLD"`
	AcceptCap        int      `mapstructure:"ACCEPT_CAP"`
	MaxExamined      int      `mapstructure:"MAX_EXAMINED"`
	MaxModifiedFiles int      `mapstructure:"MAX_MODIFIED_FILES"`
}

var defaults = map[string]interface{}{
	"LOG_LEVEL":          "info",
	"GITHUB_TOKEN":       "",
	"GITHUB_API_URL":     "",
	"WORK_DIR":           "tempRepos",
	"OUTPUT_PATH":        "output.xlsx",
	"DB_URL":             "",
	"HTTP_ADDR":          ":8080",
	"CORS_ORIGINS":       "",
	"CLEANUP_AFTER_MINE": false,
	"SEARCH_DOMAINS":     "",
	"SEARCH_KEYWORDS":    "",
	"MIN_STARS":          0,
	"COMMIT_FILTER":      "none",
	"COMMIT_THRESHOLD":   0,
	"ACCEPT_CAP":         50,
	"MAX_EXAMINED":       1000,
	"MAX_MODIFIED_FILES": 0,
}

// LoadConfig reads configuration from a .env file in dir and/or environment variables.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()

	// Registering every key as a default lets AutomaticEnv pick it up on Unmarshal.
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.SearchDomains = splitList(cfg.SearchDomains)
	cfg.SearchKeywords = splitList(cfg.SearchKeywords)
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	// Validate required fields
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.WorkDir == "" {
		return nil, errors.New("WORK_DIR must not be empty")
	}
	if _, err := model.ParseCommitFilter(cfg.CommitFilter); err != nil {
		return nil, errors.New("COMMIT_FILTER must be one of none, greater, less")
	}

	return &cfg, nil
}

// Criteria builds the search criteria configured through SEARCH_* and related keys.
func (c *Config) Criteria() model.SearchCriteria {
	filter, _ := model.ParseCommitFilter(c.CommitFilter)
	return model.SearchCriteria{
		Domains:          c.SearchDomains,
		MinStars:         c.MinStars,
		CommitFilter:     filter,
		CommitThreshold:  c.CommitThreshold,
		Keywords:         c.SearchKeywords,
		AcceptCap:        c.AcceptCap,
		MaxExamined:      c.MaxExamined,
		MaxModifiedFiles: c.MaxModifiedFiles,
	}
}

// splitList trims entries and drops empty ones, also splitting any comma lists
// left intact by the decoder.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
