package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/shared/database"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Storage is the Entity Store for jobs, actuals and the registries
type Storage struct {
	client *database.Client
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStorage creates a new Storage instance
func NewStorage(client *database.Client, logger *slog.Logger) *Storage {
	return &Storage{
		client: client,
		db:     client.GetDB(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the schema for the configured driver if it does not exist
func (s *Storage) Migrate(ctx context.Context) error {
	data, err := schemaFS.ReadFile("schema/" + s.client.Driver() + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %q: %w", s.client.Driver(), err)
	}

	for _, stmt := range strings.Split(string(data), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	s.logger.Info("Database schema is up to date", slog.String("driver", s.client.Driver()))
	return nil
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return s.client.WithTx(ctx, fn)
}

// insertReturningID runs an INSERT ... RETURNING id and returns the new id
func insertReturningID(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
)

// constraintOf recognises unique and foreign key violations from either driver
func constraintOf(err error) constraintKind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return constraintUnique
		case "foreign_key_violation":
			return constraintForeignKey
		}
		return constraintNone
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return constraintUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintForeignKey
		}
	}
	return constraintNone
}

// persistErr leaves domain errors untouched and wraps everything else
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound *domain.NotFoundError
		conflict *domain.ConflictError
	)
	if errors.As(err, &notFound) || errors.As(err, &conflict) || errors.Is(err, domain.ErrStatusConflict) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

// exists reports whether table has a row with the given id
func exists(ctx context.Context, q sqlx.QueryerContext, rebind func(string) string, table string, id int64) (bool, error) {
	var n int
	query := rebind("SELECT COUNT(1) FROM " + table + " WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &n, query, id); err != nil {
		return false, err
	}
	return n > 0, nil
}
