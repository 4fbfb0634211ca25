package store

import "github.com/theirongolddev/fburn/internal/model"

// Backend persists the categories and budgets documents. Each save replaces
// the whole document. The two documents are written independently; there is
// no transaction spanning both.
type Backend interface {
	// LoadCategories returns the stored categories in insertion order.
	// found is false when no categories document has been written yet.
	LoadCategories() (cats []model.Category, found bool, err error)
	SaveCategories(cats []model.Category) error

	LoadBudgets() ([]model.Budget, error)
	SaveBudgets(budgets []model.Budget) error

	Close() error
}
