package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
)

// JSONBackend keeps each document in its own JSON file: categories as an
// object of name to keyword array, budgets as an object of name to number.
// Key order in the files is preserved across load and save.
type JSONBackend struct {
	CategoriesPath string
	BudgetsPath    string
}

// NewJSONBackend returns a backend writing the two documents at the given paths.
func NewJSONBackend(categoriesPath, budgetsPath string) *JSONBackend {
	return &JSONBackend{CategoriesPath: categoriesPath, BudgetsPath: budgetsPath}
}

func (b *JSONBackend) LoadCategories() ([]model.Category, bool, error) {
	data, err := os.ReadFile(b.CategoriesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading categories: %w", err)
	}

	var cats []model.Category
	err = decodeObject(data, func(key string, dec *json.Decoder) error {
		var kws []string
		if err := dec.Decode(&kws); err != nil {
			return fmt.Errorf("category %q: %w", key, err)
		}
		cats = append(cats, model.Category{Name: key, Keywords: kws})
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("parsing categories: %w", err)
	}
	return cats, true, nil
}

func (b *JSONBackend) SaveCategories(cats []model.Category) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, c := range cats {
		kws := c.Keywords
		if kws == nil {
			kws = []string{}
		}
		val, err := json.Marshal(kws)
		if err != nil {
			return err
		}
		writeEntry(&buf, i, c.Name, val)
	}
	closeObject(&buf, len(cats))
	return writeFileAtomic(b.CategoriesPath, buf.Bytes())
}

func (b *JSONBackend) LoadBudgets() ([]model.Budget, error) {
	data, err := os.ReadFile(b.BudgetsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading budgets: %w", err)
	}

	var budgets []model.Budget
	err = decodeObject(data, func(key string, dec *json.Decoder) error {
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("budget %q: %w", key, err)
		}
		amt, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("budget %q: %w", key, err)
		}
		budgets = append(budgets, model.Budget{Category: key, Amount: amt})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing budgets: %w", err)
	}
	return budgets, nil
}

func (b *JSONBackend) SaveBudgets(budgets []model.Budget) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, bg := range budgets {
		writeEntry(&buf, i, bg.Category, []byte(bg.Amount.String()))
	}
	closeObject(&buf, len(budgets))
	return writeFileAtomic(b.BudgetsPath, buf.Bytes())
}

func (b *JSONBackend) Close() error { return nil }

// decodeObject walks a top-level JSON object in document order, handing each
// key to fn with the decoder positioned at its value.
func decodeObject(data []byte, fn func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		if err := fn(key, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func writeEntry(buf *bytes.Buffer, i int, key string, val []byte) {
	if i > 0 {
		buf.WriteString(",")
	}
	k, _ := json.Marshal(key)
	buf.WriteString("\n  ")
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(val)
}

func closeObject(buf *bytes.Buffer, n int) {
	if n > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// half-written document.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
