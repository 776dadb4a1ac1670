package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"storefront/internal/domain"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every repo can run
// standalone or inside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// OpenDB connects to SQLite and applies the schema. File databases take the
// write lock at BEGIN and wait on a busy timeout; in-memory databases are
// pinned to one connection since each connection would otherwise see its
// own empty database.
func OpenDB(dsn string) (*sqlx.DB, error) {
	memory := strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var defaultParams = []struct{ key, param string }{
	{"_pragma=foreign_keys", "_pragma=foreign_keys(1)"},
	{"_pragma=busy_timeout", "_pragma=busy_timeout(5000)"},
	{"_txlock=", "_txlock=immediate"},
}

// withPragmas appends the connection defaults the DSN does not already set.
func withPragmas(dsn string) string {
	_, query, _ := strings.Cut(dsn, "?")
	var missing []string
	for _, d := range defaultParams {
		if !strings.Contains(query, d.key) {
			missing = append(missing, d.param)
		}
	}
	if len(missing) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
		if strings.HasSuffix(dsn, "?") || strings.HasSuffix(dsn, "&") {
			sep = ""
		}
	}
	return dsn + sep + strings.Join(missing, "&")
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Carts: one per user. Lines keep their own name/price snapshot and no
-- reference to products, so catalog deletes never touch them.
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  position   INTEGER NOT NULL,
  name       TEXT NOT NULL,
  price      TEXT NOT NULL,
  qty        INTEGER NOT NULL CHECK (qty >= 1),
  created_at TEXT NOT NULL,
  PRIMARY KEY (cart_id, product_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('pending','processing','shipped','delivered','cancelled')),
  ship_line1 TEXT NOT NULL,
  ship_line2 TEXT NOT NULL DEFAULT '',
  ship_city TEXT NOT NULL,
  ship_state TEXT NOT NULL,
  ship_postal_code TEXT NOT NULL,
  ship_country TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_created_at   ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  line_no    INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  name       TEXT NOT NULL,
  price      TEXT NOT NULL,
  qty        INTEGER NOT NULL CHECK (qty >= 1),
  PRIMARY KEY (order_id, line_no)
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('admin','customer')),
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// SeedDemo inserts a small catalog if the products table is empty.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	type seed struct {
		id, name, desc, price, category string
		stock                           int
	}
	items := []seed{
		{"gbc-001", "Game Boy Color", "Handheld console, tested and cleaned", "129.99", "consoles", 8},
		{"nes-001", "NES Console", "Classic 8-bit console", "199.00", "consoles", 5},
		{"radio-001", "Philco 1939", "Vintage vacuum tube radio", "349.50", "radios", 2},
		{"radio-zenith-500", "Zenith Royal 500", "Pocket transistor radio, works on 9V", "89.00", "radios", 0},
	}
	ts := time.Now()
	for i, it := range items {
		// Spread creation times so listing order is stable.
		at := stamp(ts.Add(time.Duration(i) * time.Millisecond))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products(id, name, description, price, category, stock, image_url, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?, '', ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, it.id, it.name, it.desc, it.price, it.category, it.stock, at, at); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// stamp renders a fixed-width UTC timestamp so TEXT ordering matches time
// ordering.
func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

// notFoundOr maps sql.ErrNoRows to domain.ErrNotFound and anything else to
// a storage failure.
func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return storageErr(err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed: unique")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
