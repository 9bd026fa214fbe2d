// Package store provides SQLite persistence for the catalog service.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/shelf/internal/catalog"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
// position records insertion order, which is the catalog's natural order.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL CHECK (price >= 0),
		position INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveProducts upserts products in one transaction and returns how many
// were newly inserted. New products are appended after existing ones;
// updated products keep their position.
// Thread-safe: acquires write lock.
func (s *Store) SaveProducts(products []catalog.Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(products) == 0 {
		return 0, nil
	}

	for _, p := range products {
		if p.ID == "" {
			return 0, fmt.Errorf("save product %q: missing id", p.Name)
		}
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("save product: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op after commit
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM products").Scan(&next); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO products (id, name, category, price, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			price = excluded.price,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	var exists int
	inserted := 0
	for _, p := range products {
		if err := tx.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", p.ID.String()).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check product %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID.String(), p.Name, p.Category, p.Price, next); err != nil {
			return 0, fmt.Errorf("save product %s: %w", p.ID, err)
		}
		if exists == 0 {
			inserted++
			next++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// ListProducts returns every product in catalog order.
// Thread-safe: acquires read lock.
func (s *Store) ListProducts() ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, category, price
		FROM products
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		var p catalog.Product
		var id string
		if err := rows.Scan(&id, &p.Name, &p.Category, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ID = catalog.ID(id)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories returns the All sentinel followed by each distinct category in
// catalog order.
// Thread-safe: acquires read lock.
func (s *Store) Categories() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT category
		FROM products
		GROUP BY category
		ORDER BY MIN(position) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return catalog.MergeCategories(categories), nil
}

// GetProduct returns the product with id. Reports whether it exists.
// Thread-safe: acquires read lock.
func (s *Store) GetProduct(id string) (catalog.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p catalog.Product
	var pid string
	err := s.db.QueryRow(`
		SELECT id, name, category, price
		FROM products
		WHERE id = ?
	`, id).Scan(&pid, &p.Name, &p.Category, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, fmt.Errorf("get product %s: %w", id, err)
	}
	p.ID = catalog.ID(pid)
	return p, true, nil
}

// DeleteProduct removes a product. Reports whether it existed.
// Thread-safe: acquires write lock.
func (s *Store) DeleteProduct(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of stored products.
// Thread-safe: acquires read lock.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
