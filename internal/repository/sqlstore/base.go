package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/medrecords-api/internal/repository"
)

// baseRepository runs queries on either the pool or an open transaction.
// Queries are written with ? placeholders and rebound for the driver.
type baseRepository struct {
	q sqlx.ExtContext
}

func (r *baseRepository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, r.q, dest, r.q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (r *baseRepository) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, r.q, dest, r.q.Rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id and returns the new id.
func (r *baseRepository) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := sqlx.GetContext(ctx, r.q, &id, r.q.Rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern builds a substring pattern with LIKE wildcards escaped.
func likePattern(query string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(query) + "%"
}
