package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/config"
)

// Querier is the statement surface shared by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn is a Querier that can also open transactions.
type Conn interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Gateway owns the connection pool. Each request takes one dedicated
// connection from it with Acquire and must close it before returning.
type Gateway struct {
	db  *sql.DB
	log *slog.Logger
}

// New wraps an already opened pool.
func New(db *sql.DB, log *slog.Logger) *Gateway {
	return &Gateway{db: db, log: log}
}

// Init opens and pings the MySQL pool described by cfg.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*Gateway, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 接続テスト
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database: Connection established", "host", cfg.DBHost, "name", cfg.DBName)
	return New(db, log), nil
}

// Acquire takes a dedicated connection out of the pool.
func (g *Gateway) Acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		g.log.Error("database: Failed to acquire connection", "error", err)
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// Ping checks that the store is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

// DB exposes the underlying pool.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

// Close closes the pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}
