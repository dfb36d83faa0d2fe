package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/producelens/backend/internal/domain"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
	id          BIGINT PRIMARY KEY,
	name        TEXT NOT NULL,
	aliases     TEXT,
	category    TEXT,
	price       DOUBLE PRECISION,
	region      TEXT,
	season      TEXT,
	is_organic  INTEGER,
	is_local    INTEGER,
	store       TEXT,
	update_time TEXT
)`

// Every column is read back as text so unknown values stay distinguishable
// from zero and normalization happens in one place for all catalog sources.
const selectProducts = `
SELECT
	CAST(id AS TEXT)                       AS id,
	COALESCE(name, '')                     AS name,
	COALESCE(aliases, '')                  AS aliases,
	COALESCE(category, '')                 AS category,
	COALESCE(CAST(price AS TEXT), '')      AS price,
	COALESCE(region, '')                   AS region,
	COALESCE(season, '')                   AS season,
	COALESCE(CAST(is_organic AS TEXT), '') AS is_organic,
	COALESCE(CAST(is_local AS TEXT), '')   AS is_local,
	COALESCE(store, '')                    AS store,
	COALESCE(update_time, '')              AS update_time
FROM products
ORDER BY id`

const insertProduct = `
INSERT INTO products (id, name, aliases, category, price, region, season, is_organic, is_local, store, update_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLProvider reads the catalog from a products table in SQLite or PostgreSQL.
type SQLProvider struct {
	db     *sqlx.DB
	driver string
}

// OpenSQL connects to the database. driver is DriverSQLite (dsn is a file path
// or ":memory:") or DriverPostgres (dsn is a connection URL).
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLProvider, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases shared across calls.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLProvider{db: db, driver: driver}, nil
}

// Name returns "<driver>:products", used as the evidence source label.
func (p *SQLProvider) Name() string {
	return p.driver + ":products"
}

// Close closes the database connection
func (p *SQLProvider) Close() error {
	return p.db.Close()
}

// InitSchema creates the products table if it does not exist.
func (p *SQLProvider) InitSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, productsSchema); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// HasProductsTable reports whether the products table exists.
func (p *SQLProvider) HasProductsTable(ctx context.Context) (bool, error) {
	var query string
	switch p.driver {
	case DriverSQLite:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'products'`
	default:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'products'`
	}

	var n int
	if err := p.db.GetContext(ctx, &n, query); err != nil {
		return false, fmt.Errorf("check products table: %w", err)
	}
	return n > 0, nil
}

// ListProducts returns every row of the products table ordered by id.
func (p *SQLProvider) ListProducts(ctx context.Context) ([]domain.CatalogRow, error) {
	var rows []domain.CatalogRow
	if err := p.db.SelectContext(ctx, &rows, selectProducts); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return rows, nil
}

// Seed replaces the table contents with rows in one transaction and returns
// the number of rows inserted. Unknown prices and flags are stored as NULL.
func (p *SQLProvider) Seed(ctx context.Context, rows []domain.CatalogRow) (int, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return 0, fmt.Errorf("clear products: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertProduct))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row.ID), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid id %q", i+1, row.ID)
		}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return 0, fmt.Errorf("row %d: missing name", i+1)
		}

		_, err = stmt.ExecContext(ctx,
			id,
			name,
			row.Aliases,
			row.Category,
			nullPrice(row.Price),
			row.Region,
			row.Season,
			nullFlag(row.IsOrganic),
			nullFlag(row.IsLocal),
			row.Store,
			row.UpdateTime,
		)
		if err != nil {
			return 0, fmt.Errorf("insert product %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

func nullPrice(raw string) sql.NullFloat64 {
	price := domain.ParsePrice(raw)
	return sql.NullFloat64{Float64: price.Value, Valid: price.Known}
}

func nullFlag(raw string) sql.NullInt64 {
	switch domain.ParseTriState(raw) {
	case domain.True:
		return sql.NullInt64{Int64: 1, Valid: true}
	case domain.False:
		return sql.NullInt64{Int64: 0, Valid: true}
	default:
		return sql.NullInt64{}
	}
}

// IsMissingTable reports whether err is the "no products table" condition
// returned by OpenSQLCatalog.
func IsMissingTable(err error) bool {
	return errors.Is(err, errNoProductsTable)
}

var errNoProductsTable = errors.New("products table does not exist")

// OpenSQLCatalog opens the database and checks that the products table exists.
func OpenSQLCatalog(ctx context.Context, driver, dsn string) (*SQLProvider, error) {
	provider, err := OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	ok, err := provider.HasProductsTable(ctx)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	if !ok {
		_ = provider.Close()
		return nil, errNoProductsTable
	}
	return provider, nil
}
