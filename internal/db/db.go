package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"punkdir/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// SeedDevData inserts sample directory entries for development. Skips rows
// that already exist.
func (d *DB) SeedDevData(ctx context.Context) error {
	bands := []struct {
		name, genre, city, state string
	}{
		{"The Broken Amps", "hardcore", "Oakland", "CA"},
		{"Gutter Ballet", "street punk", "Richmond", "VA"},
		{"Riot Pact", "d-beat", "Portland", "OR"},
	}
	for _, b := range bands {
		_, err := d.Pool.Exec(ctx, `
			INSERT INTO bands (name, genre, city, state, country, active)
			SELECT $1, $2, $3, $4, 'USA', TRUE
			WHERE NOT EXISTS (SELECT 1 FROM bands WHERE name = $1)
		`, b.name, b.genre, b.city, b.state)
		if err != nil {
			return fmt.Errorf("failed to seed band %s: %w", b.name, err)
		}
	}

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO venues (name, type, city, state, country, capacity)
		SELECT 'Basement 414', 'diy space', 'Oakland', 'CA', 'USA', 80
		WHERE NOT EXISTS (SELECT 1 FROM venues WHERE name = 'Basement 414')
	`)
	if err != nil {
		return fmt.Errorf("failed to seed venue: %w", err)
	}

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO resources (name, link, description)
		SELECT 'Book Your Own Life', 'https://example.org/byol', 'DIY touring contacts'
		WHERE NOT EXISTS (SELECT 1 FROM resources WHERE name = 'Book Your Own Life')
	`)
	if err != nil {
		return fmt.Errorf("failed to seed resource: %w", err)
	}

	return nil
}
