// internal/miner/match.go
package miner

import "strings"

// matcher tests commit messages for case-insensitive keyword containment.
type matcher struct {
	keywords []string
}

func newMatcher(keywords []string) matcher {
	seen := make(map[string]struct{}, len(keywords))
	m := matcher{}
	for _, k := range keywords {
		k = strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		m.keywords = append(m.keywords, k)
	}
	return m
}

// Match reports whether msg contains at least one keyword.
func (m matcher) Match(msg string) bool {
	lower := strings.ToLower(msg)
	for _, k := range m.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
