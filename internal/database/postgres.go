package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"property-survey-backend/internal/config"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate reports a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStateChanged reports that a conditional update matched no row because
	// the status it was guarded on no longer holds.
	ErrStateChanged = errors.New("record state changed")
)

const uniqueViolation = "23505"

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Client is the Postgres-backed survey and image store.
type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewClient(db *sql.DB, logger *zap.Logger) *Client {
	return &Client{db: db, logger: logger}
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
