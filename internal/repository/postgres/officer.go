package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type officerRepository struct {
	BaseRepository
}

func NewOfficerRepository(base BaseRepository) repository.OfficerRepository {
	return &officerRepository{base}
}

func (r *officerRepository) Create(ctx context.Context, officer *model.Officer) error {
	query := `
		INSERT INTO officers (id, full_name, division_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if officer.ID == uuid.Nil {
		officer.ID = uuid.New()
	}
	officer.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		officer.ID,
		officer.FullName,
		officer.DivisionID,
		officer.Active,
		officer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create officer: %w", err)
	}
	return nil
}

func (r *officerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Officer, error) {
	query := `
		SELECT id, full_name, division_id, active, created_at
		FROM officers
		WHERE id = $1
	`
	var officer model.Officer
	if err := r.db.GetContext(ctx, &officer, query, id); err != nil {
		return nil, notFound(err)
	}
	return &officer, nil
}

func (r *officerRepository) ListActiveByDivision(ctx context.Context, divisionID uuid.UUID) ([]*model.Officer, error) {
	query := `
		SELECT id, full_name, division_id, active, created_at
		FROM officers
		WHERE division_id = $1 AND active
		ORDER BY seq
	`
	var officers []*model.Officer
	if err := r.db.SelectContext(ctx, &officers, query, divisionID); err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}
	return officers, nil
}

// List returns every officer for the admin directory.
func (r *officerRepository) List(ctx context.Context) ([]*model.Officer, error) {
	query := `
		SELECT id, full_name, division_id, active, created_at
		FROM officers
		ORDER BY seq
	`
	var officers []*model.Officer
	if err := r.db.SelectContext(ctx, &officers, query); err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}
	return officers, nil
}

func (r *officerRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM officers WHERE active`); err != nil {
		return 0, fmt.Errorf("failed to count officers: %w", err)
	}
	return count, nil
}

func (r *officerRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE officers SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update officer: %w", err)
	}
	return affectedOne(result)
}
