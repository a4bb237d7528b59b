// Package postgres provides a PostgreSQL-backed user store, wiring the pgx
// stdlib driver, sqlx for row mapping and goose for schema migrations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/accountd/internal/domain"
	"github.com/msomdec/accountd/internal/repository/postgres/migrations"
)

// Config holds connection settings.
type Config struct {
	DSN      string
	MaxConns int
	Timeout  time.Duration
}

// DB wraps a Postgres connection pool and vends its repositories.
type DB struct {
	db    *sqlx.DB
	users *UserRepository
}

// Open connects to Postgres and verifies connectivity with a ping.
func Open(cfg Config) (*DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return NewDB(sqlx.NewDb(sqlDB, "pgx")), nil
}

// NewDB wraps an existing connection.
func NewDB(db *sqlx.DB) *DB {
	return &DB{db: db, users: NewUserRepository(db)}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate runs the embedded goose migrations.
func (d *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, d.db.DB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Users returns the user repository.
func (d *DB) Users() domain.UserRepository {
	return d.users
}
