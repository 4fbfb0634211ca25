package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/store"
)

var ErrUnknownTransaction = errors.New("unknown transaction")

// Edit reassigns one row to a category.
type Edit struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
}

// Learned records a keyword added by an edit.
type Learned struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// EditResult reports what ApplyEdits changed.
type EditResult struct {
	Applied int       `json:"applied"`
	Learned []Learned `json:"learned"`
}

// Session is the state of one interactive run: the store, the current
// upload, and the user's pending category assignments. Every mutation
// re-runs the pipeline. A Session is not safe for concurrent use.
type Session struct {
	store     *store.Store
	log       *log.Logger
	budgeting bool

	txs       []model.Transaction
	files     []string
	overrides map[int]string
	result    Result
}

// NewSession wraps st. budgeting enables the budget columns and edits in
// presentation; the budget store is maintained either way.
func NewSession(st *store.Store, budgeting bool, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{
		store:     st,
		log:       logger.WithPrefix("session"),
		budgeting: budgeting,
		overrides: make(map[int]string),
	}
	s.Recompute()
	return s
}

// Store returns the underlying category and budget store.
func (s *Session) Store() *store.Store { return s.store }

// Budgeting reports whether the budget feature is enabled.
func (s *Session) Budgeting() bool { return s.budgeting }

// Files returns the names of the loaded statements.
func (s *Session) Files() []string { return s.files }

// Loaded reports whether a statement has been loaded.
func (s *Session) Loaded() bool { return s.files != nil }

// Result returns the latest pipeline output.
func (s *Session) Result() Result { return s.result }

// SetLoad replaces the current upload and drops pending assignments.
func (s *Session) SetLoad(lr *LoadResult) {
	s.txs = lr.Transactions
	s.files = lr.Files
	if s.files == nil {
		s.files = []string{}
	}
	s.overrides = make(map[int]string)
	s.Recompute()
	s.log.Info("statement loaded", "files", len(s.files), "rows", len(s.txs))
}

// Recompute re-runs the pipeline against the current store contents.
func (s *Session) Recompute() Result {
	s.result = Run(Input{
		Transactions: s.txs,
		Categories:   s.store.Categories(),
		Budgets:      s.store.BudgetMap(),
		Overrides:    s.overrides,
	})
	return s.result
}

// ApplyEdits assigns each edited row to its new category and learns the
// row's detail text as a keyword of that category. Only debit rows are
// editable; a credit row's ID is reported as unknown. Edits that do not change
// a row are ignored. All edits are validated before any is applied.
func (s *Session) ApplyEdits(edits []Edit) (EditResult, error) {
	current := make(map[int]model.Transaction, len(s.result.Debits))
	for _, tx := range s.result.Debits {
		current[tx.ID] = tx
	}
	for _, e := range edits {
		if _, ok := current[e.ID]; !ok {
			return EditResult{}, fmt.Errorf("%w: %d", ErrUnknownTransaction, e.ID)
		}
		if !s.store.Has(e.Category) {
			return EditResult{}, fmt.Errorf("%w: %q", store.ErrUnknownCategory, e.Category)
		}
	}

	var res EditResult
	var firstErr error
	for _, e := range edits {
		tx := current[e.ID]
		if tx.Category == e.Category {
			continue
		}
		s.overrides[e.ID] = e.Category
		tx.Category = e.Category
		current[e.ID] = tx
		res.Applied++

		learned, err := s.store.AddKeyword(e.Category, tx.Details)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if learned {
			res.Learned = append(res.Learned, Learned{Category: e.Category, Keyword: strings.TrimSpace(tx.Details)})
			s.log.Info("keyword learned", "category", e.Category, "keyword", tx.Details)
		}
	}

	s.Recompute()
	return res, firstErr
}

// AddCategory creates a category and recomputes.
func (s *Session) AddCategory(name string) (bool, error) {
	added, err := s.store.AddCategory(name)
	if added {
		s.log.Info("category added", "category", name)
	}
	s.Recompute()
	return added, err
}

// AddKeyword adds a keyword directly and recomputes.
func (s *Session) AddKeyword(category, keyword string) (bool, error) {
	learned, err := s.store.AddKeyword(category, keyword)
	s.Recompute()
	return learned, err
}

// SetBudget changes a budget in memory and recomputes.
func (s *Session) SetBudget(category string, amount decimal.Decimal) error {
	if err := s.store.SetBudget(category, amount); err != nil {
		return err
	}
	s.Recompute()
	return nil
}

// SaveBudgets persists the budgets document.
func (s *Session) SaveBudgets() error {
	return s.store.SaveBudgets()
}
