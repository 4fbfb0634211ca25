// Package store holds the category keyword sets and budgets, and persists
// them through a Backend.
package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNegativeBudget  = errors.New("budget must not be negative")
)

// Store is the in-memory view of both documents. Category mutations are
// written through immediately; budget edits stay in memory until
// SaveBudgets. A Store is not safe for concurrent use.
type Store struct {
	backend Backend
	log     *log.Logger

	cats  []model.Category
	index map[string]int

	budgets     map[string]decimal.Decimal
	budgetOrder []string
	dirty       bool
}

// Open loads both documents from b. With no categories document the store
// starts with only Uncategorized. Every category lacking a budget gets 0.
func Open(b Backend, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Store{
		backend: b,
		log:     logger.WithPrefix("store"),
		index:   make(map[string]int),
		budgets: make(map[string]decimal.Decimal),
	}

	cats, found, err := b.LoadCategories()
	if err != nil {
		return nil, err
	}
	if !found {
		cats = []model.Category{{Name: model.Uncategorized, Keywords: []string{}}}
	}
	for _, c := range cats {
		s.putCategory(c)
	}
	if _, ok := s.index[model.Uncategorized]; !ok {
		s.cats = append([]model.Category{{Name: model.Uncategorized, Keywords: []string{}}}, s.cats...)
		s.reindex()
	}

	budgets, err := b.LoadBudgets()
	if err != nil {
		return nil, err
	}
	for _, bg := range budgets {
		s.putBudget(bg.Category, bg.Amount)
	}
	for _, c := range s.cats {
		if _, ok := s.budgets[c.Name]; !ok {
			s.putBudget(c.Name, decimal.Zero)
		}
	}

	s.log.Debug("loaded", "categories", len(s.cats), "budgets", len(s.budgets), "found", found)
	return s, nil
}

// putCategory appends c, or replaces the keywords of an existing entry with
// the same name so that a repeated key behaves as last-wins.
func (s *Store) putCategory(c model.Category) {
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if i, ok := s.index[c.Name]; ok {
		s.cats[i].Keywords = c.Keywords
		return
	}
	s.index[c.Name] = len(s.cats)
	s.cats = append(s.cats, c)
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.cats))
	for i, c := range s.cats {
		s.index[c.Name] = i
	}
}

func (s *Store) putBudget(name string, amt decimal.Decimal) {
	if _, ok := s.budgets[name]; !ok {
		s.budgetOrder = append(s.budgetOrder, name)
	}
	s.budgets[name] = amt
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Categories returns a copy of every category in insertion order.
func (s *Store) Categories() []model.Category {
	out := make([]model.Category, len(s.cats))
	for i, c := range s.cats {
		out[i] = model.Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// Names returns category names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.cats))
	for i, c := range s.cats {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a category exists.
func (s *Store) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Keywords returns a copy of a category's keyword set.
func (s *Store) Keywords(name string) []string {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return append([]string(nil), s.cats[i].Keywords...)
}

// AddCategory creates an empty category with a zero budget and persists both
// documents. It returns false without error when the trimmed name is empty or
// already taken.
func (s *Store) AddCategory(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || s.Has(name) {
		return false, nil
	}

	s.putCategory(model.Category{Name: name, Keywords: []string{}})
	if err := s.backend.SaveCategories(s.cats); err != nil {
		s.cats = s.cats[:len(s.cats)-1]
		delete(s.index, name)
		return false, fmt.Errorf("saving categories: %w", err)
	}

	s.putBudget(name, decimal.Zero)
	if err := s.backend.SaveBudgets(s.Budgets()); err != nil {
		// The category is already on disk; the budget default is
		// re-applied at the next load.
		return true, fmt.Errorf("saving budgets: %w", err)
	}
	s.dirty = false

	s.log.Debug("category added", "category", name)
	return true, nil
}

// AddKeyword appends a trimmed keyword to a category and persists the
// categories document. It returns false without error when the category is
// unknown or Uncategorized, the keyword is empty, or the category already
// holds it (compared case-insensitively).
func (s *Store) AddKeyword(category, keyword string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	i, ok := s.index[category]
	if !ok || keyword == "" || category == model.Uncategorized {
		return false, nil
	}
	for _, kw := range s.cats[i].Keywords {
		if strings.EqualFold(strings.TrimSpace(kw), keyword) {
			return false, nil
		}
	}

	prev := s.cats[i].Keywords
	s.cats[i].Keywords = append(append([]string(nil), prev...), keyword)
	if err := s.backend.SaveCategories(s.cats); err != nil {
		s.cats[i].Keywords = prev
		return false, fmt.Errorf("saving categories: %w", err)
	}

	s.log.Debug("keyword learned", "category", category, "keyword", keyword)
	return true, nil
}

// Budget returns a category's budget, zero when none is set.
func (s *Store) Budget(name string) decimal.Decimal {
	return s.budgets[name]
}

// Budgets returns every budget: categories first in their order, then any
// budget entries with no matching category.
func (s *Store) Budgets() []model.Budget {
	out := make([]model.Budget, 0, len(s.budgets))
	seen := make(map[string]bool, len(s.cats))
	for _, c := range s.cats {
		if amt, ok := s.budgets[c.Name]; ok {
			out = append(out, model.Budget{Category: c.Name, Amount: amt})
			seen[c.Name] = true
		}
	}
	for _, name := range s.budgetOrder {
		if !seen[name] {
			out = append(out, model.Budget{Category: name, Amount: s.budgets[name]})
		}
	}
	return out
}

// BudgetMap returns a copy of the budgets keyed by category.
func (s *Store) BudgetMap() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.budgets))
	for k, v := range s.budgets {
		out[k] = v
	}
	return out
}

// SetBudget changes a budget in memory only. Call SaveBudgets to persist.
func (s *Store) SetBudget(name string, amount decimal.Decimal) error {
	if !s.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	if amount.IsNegative() {
		return ErrNegativeBudget
	}
	if cur, ok := s.budgets[name]; ok && cur.Equal(amount) {
		return nil
	}
	s.putBudget(name, amount)
	s.dirty = true
	return nil
}

// Dirty reports whether budgets changed since the last save.
func (s *Store) Dirty() bool { return s.dirty }

// SaveBudgets writes the budgets document.
func (s *Store) SaveBudgets() error {
	if err := s.backend.SaveBudgets(s.Budgets()); err != nil {
		return fmt.Errorf("saving budgets: %w", err)
	}
	s.dirty = false
	s.log.Debug("budgets saved", "count", len(s.budgets))
	return nil
}
