// internal/model/models_test.go
package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "commit-miner/internal/errors"
)

func TestSearchCriteria_Accepts(t *testing.T) {
	testCases := []struct {
		name   string
		filter CommitFilter
		count  CommitCount
		want   bool
	}{
		{"none accepts anything", CommitFilterNone, 3, true},
		{"none accepts unknown", CommitFilterNone, CommitCountUnknown, true},
		{"greater above threshold", CommitFilterGreater, 11, true},
		{"greater at threshold", CommitFilterGreater, 10, false},
		{"greater rejects unknown", CommitFilterGreater, CommitCountUnknown, false},
		{"less below threshold", CommitFilterLess, 9, true},
		{"less at threshold", CommitFilterLess, 10, false},
		{"less accepts known zero", CommitFilterLess, 0, true},
		{"less rejects unknown", CommitFilterLess, CommitCountUnknown, false},
		{"mixed-case greater rejects below threshold", "Greater", 3, false},
		{"mixed-case greater accepts above threshold", "Greater", 11, true},
		{"padded less rejects unknown", " less ", CommitCountUnknown, false},
		{"empty filter accepts anything", "", 3, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := SearchCriteria{CommitFilter: tc.filter, CommitThreshold: 10}
			assert.Equal(t, tc.want, c.Accepts(tc.count))
		})
	}
}

func TestSearchCriteria_Validate(t *testing.T) {
	valid := SearchCriteria{
		Domains:      []string{"security"},
		CommitFilter: CommitFilterNone,
		Keywords:     []string{"fix"},
		AcceptCap:    50,
	}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		field  string
		mutate func(*SearchCriteria)
	}{
		{"domains", func(c *SearchCriteria) { c.Domains = []string{" ", ""} }},
		{"min_stars", func(c *SearchCriteria) { c.MinStars = -1 }},
		{"commit_filter", func(c *SearchCriteria) { c.CommitFilter = "between" }},
		{"keywords", func(c *SearchCriteria) { c.Keywords = nil }},
		{"accept_cap", func(c *SearchCriteria) { c.AcceptCap = 0 }},
		{"max_examined", func(c *SearchCriteria) { c.MaxExamined = -1 }},
		{"max_modified_files", func(c *SearchCriteria) { c.MaxModifiedFiles = -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			c := valid
			tc.mutate(&c)

			err := c.Validate()

			var invalid *custom_errors.ErrInvalidCriteria
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestSearchCriteria_Normalized(t *testing.T) {
	c := SearchCriteria{CommitFilter: " Greater "}
	assert.Equal(t, CommitFilterGreater, c.Normalized().CommitFilter)
	assert.Equal(t, CommitFilterNone, SearchCriteria{}.Normalized().CommitFilter)
	assert.Equal(t, CommitFilter("between"), SearchCriteria{CommitFilter: "between"}.Normalized().CommitFilter)
}

func TestParseCommitFilter(t *testing.T) {
	for in, want := range map[string]CommitFilter{
		"":          CommitFilterNone,
		"none":      CommitFilterNone,
		" Greater ": CommitFilterGreater,
		"LESS":      CommitFilterLess,
	} {
		got, err := ParseCommitFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCommitFilter(">=")
	assert.Error(t, err)
}

func TestOutcome_Message(t *testing.T) {
	assert.Equal(t, "No repositories found matching the criteria.", OutcomeNoRepositories.Message())
	assert.Equal(t, "No relevant commits found.", OutcomeNoCommits.Message())
	assert.Equal(t, "Error exporting commit records.", OutcomeExportFailed.Message())
	assert.Equal(t, "Export completed successfully.", OutcomeExported.Message())
}
