package pipeline

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/theirongolddev/fburn/internal/model"
)

// Suggest proposes, for each Uncategorized debit, the nearest learned keyword
// by edit distance. A candidate must be within a third of the detail length
// (at least 1). Suggestions are hints; they never change a row's category.
func Suggest(debits []model.Transaction, cats []model.Category) []model.Suggestion {
	type candidate struct {
		keyword  string
		category string
	}
	var pool []candidate
	for _, c := range cats {
		if c.Name == model.Uncategorized {
			continue
		}
		for _, kw := range c.Keywords {
			if k := strings.ToLower(strings.TrimSpace(kw)); k != "" {
				pool = append(pool, candidate{keyword: k, category: c.Name})
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}

	var out []model.Suggestion
	for _, tx := range debits {
		if tx.Category != model.Uncategorized {
			continue
		}
		detail := strings.ToLower(strings.TrimSpace(tx.Details))
		if detail == "" {
			continue
		}
		limit := len([]rune(detail)) / 3
		if limit < 1 {
			limit = 1
		}

		best, bestDist := -1, limit+1
		for i, c := range pool {
			if d := levenshtein.ComputeDistance(detail, c.keyword); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue
		}
		out = append(out, model.Suggestion{
			TransactionID: tx.ID,
			Category:      pool[best].category,
			Keyword:       pool[best].keyword,
			Distance:      bestDist,
		})
	}
	return out
}
