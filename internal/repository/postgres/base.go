package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

const uniqueViolation = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows onto the store sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// affectedOne reports ErrNotFound when an UPDATE keyed by id matched nothing.
func affectedOne(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// compareAndSetStatus is the shared per-entity transition primitive. The status
// predicate in the WHERE clause makes concurrent transitions on one row exclusive.
func (r *BaseRepository) compareAndSetStatus(ctx context.Context, table string, id any, from, to model.Status, remarks *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, status_remarks = COALESCE($2, status_remarks), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, table)

	result, err := r.db.ExecContext(ctx, query, to, remarks, id, from)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id); err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStaleStatus
}

// filterClause renders the optional citizen/division/status constraints.
func filterClause(filter model.RequestFilter, withDivision bool) (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		clause += fmt.Sprintf(" AND citizen_id = $%d", len(args))
	}
	if withDivision && filter.DivisionID != nil {
		args = append(args, *filter.DivisionID)
		clause += fmt.Sprintf(" AND division_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clause += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return clause, args
}

type statusCountRow struct {
	Status model.Status `db:"status"`
	Count  int          `db:"count"`
}

func (r *BaseRepository) countByStatus(ctx context.Context, table string, filter model.RequestFilter, withDivision bool) (model.StatusCounts, error) {
	clause, args := filterClause(filter, withDivision)
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM %s%s GROUP BY status`, table, clause)

	var rows []statusCountRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}

	counts := make(model.StatusCounts, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// liveStatuses are the statuses that still occupy a slot.
func liveStatuses() pq.StringArray {
	statuses := make(pq.StringArray, 0, len(model.NonTerminalStatuses))
	for _, s := range model.NonTerminalStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}
