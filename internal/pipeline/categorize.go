package pipeline

import (
	"strings"

	"github.com/theirongolddev/fburn/internal/model"
)

// Matcher classifies detail text by exact lookup of its lowercased form
// against every category's lowercased, trimmed keywords.
type Matcher struct {
	lookup map[string]string
}

// NewMatcher builds the keyword table in category order. A keyword listed
// under several categories maps to the first of them. Uncategorized and
// categories without keywords contribute nothing.
func NewMatcher(cats []model.Category) *Matcher {
	m := &Matcher{lookup: make(map[string]string)}
	for _, c := range cats {
		if c.Name == model.Uncategorized {
			continue
		}
		for _, kw := range c.Keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" {
				continue
			}
			if _, taken := m.lookup[key]; !taken {
				m.lookup[key] = c.Name
			}
		}
	}
	return m
}

// Match returns the category for a detail string, or Uncategorized. The
// detail is lowercased but not trimmed.
func (m *Matcher) Match(details string) string {
	if cat, ok := m.lookup[strings.ToLower(details)]; ok {
		return cat
	}
	return model.Uncategorized
}

// Categorize returns a copy of txs with every Category assigned by m.
func Categorize(txs []model.Transaction, m *Matcher) []model.Transaction {
	out := make([]model.Transaction, len(txs))
	for i, tx := range txs {
		tx.Category = m.Match(tx.Details)
		out[i] = tx
	}
	return out
}
