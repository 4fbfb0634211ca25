package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	docCategories = "categories"
	docBudgets    = "budgets"
)

// SQLiteBackend stores both documents in one SQLite database. Saves still
// replace a whole document, one transaction per document.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dbPath and applies migrations.
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// runMigrations uses its own connection; closing the migrator closes it.
func runMigrations(dbPath string) error {
	mdb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer func() { _ = mdb.Close() }()

	driver, err := sqlite.WithInstance(mdb, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) documentExists(name string) (bool, error) {
	var n int
	err := b.db.QueryRow("SELECT COUNT(*) FROM documents WHERE name = ?", name).Scan(&n)
	return n > 0, err
}

func (b *SQLiteBackend) LoadCategories() ([]model.Category, bool, error) {
	found, err := b.documentExists(docCategories)
	if err != nil || !found {
		return nil, false, err
	}

	rows, err := b.db.Query(`
		SELECT c.name, k.keyword
		FROM categories c
		LEFT JOIN category_keywords k ON k.category = c.name
		ORDER BY c.position, k.position`)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	var cats []model.Category
	for rows.Next() {
		var name string
		var kw sql.NullString
		if err := rows.Scan(&name, &kw); err != nil {
			return nil, false, err
		}
		if len(cats) == 0 || cats[len(cats)-1].Name != name {
			cats = append(cats, model.Category{Name: name, Keywords: []string{}})
		}
		if kw.Valid {
			last := &cats[len(cats)-1]
			last.Keywords = append(last.Keywords, kw.String)
		}
	}
	return cats, true, rows.Err()
}

func (b *SQLiteBackend) SaveCategories(cats []model.Category) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM category_keywords"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM categories"); err != nil {
		return err
	}

	catStmt, err := tx.Prepare("INSERT INTO categories (name, position) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = catStmt.Close() }()
	kwStmt, err := tx.Prepare("INSERT INTO category_keywords (category, position, keyword) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = kwStmt.Close() }()

	for i, c := range cats {
		if _, err := catStmt.Exec(c.Name, i); err != nil {
			return fmt.Errorf("saving category %q: %w", c.Name, err)
		}
		for j, kw := range c.Keywords {
			if _, err := kwStmt.Exec(c.Name, j, kw); err != nil {
				return fmt.Errorf("saving keyword %q: %w", kw, err)
			}
		}
	}

	if err := touchDocument(tx, docCategories); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLiteBackend) LoadBudgets() ([]model.Budget, error) {
	rows, err := b.db.Query("SELECT category, amount FROM budgets ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var name, amount string
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("budget %q: %w", name, err)
		}
		budgets = append(budgets, model.Budget{Category: name, Amount: d})
	}
	return budgets, rows.Err()
}

func (b *SQLiteBackend) SaveBudgets(budgets []model.Budget) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM budgets"); err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO budgets (category, position, amount) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, bg := range budgets {
		if _, err := stmt.Exec(bg.Category, i, bg.Amount.String()); err != nil {
			return fmt.Errorf("saving budget %q: %w", bg.Category, err)
		}
	}

	if err := touchDocument(tx, docBudgets); err != nil {
		return err
	}
	return tx.Commit()
}

func touchDocument(tx *sql.Tx, name string) error {
	_, err := tx.Exec(`INSERT INTO documents (name, updated_at) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
		name, time.Now().UTC().Format(time.RFC3339))
	return err
}
