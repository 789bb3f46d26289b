package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

const serviceTypeColumns = `id, name, description, active`

type serviceTypeRepository struct {
	BaseRepository
}

func NewServiceTypeRepository(base BaseRepository) repository.ServiceTypeRepository {
	return &serviceTypeRepository{base}
}

func (r *serviceTypeRepository) Create(ctx context.Context, st *model.ServiceType) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_types (id, name, description, active) VALUES ($1, $2, $3, $4)`,
		st.ID, st.Name, st.Description, st.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create service type: %w", err)
	}
	return nil
}

func (r *serviceTypeRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceType, error) {
	var st model.ServiceType
	if err := r.db.GetContext(ctx, &st, `SELECT `+serviceTypeColumns+` FROM service_types WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

func (r *serviceTypeRepository) List(ctx context.Context) ([]*model.ServiceType, error) {
	var types []*model.ServiceType
	if err := r.db.SelectContext(ctx, &types, `SELECT `+serviceTypeColumns+` FROM service_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list service types: %w", err)
	}
	return types, nil
}

func (r *serviceTypeRepository) Update(ctx context.Context, st *model.ServiceType) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE service_types SET name = $1, description = $2, active = $3 WHERE id = $4`,
		st.Name, st.Description, st.Active, st.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service type: %w", err)
	}
	return affectedOne(result)
}

func (r *serviceTypeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE service_types SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update service type: %w", err)
	}
	return affectedOne(result)
}
