package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

const serviceRequestColumns = `
	id, citizen_id, citizen_email, division_id, service_type_id, remarks,
	document_ref, status, status_remarks, created_at, updated_at
`

type serviceRequestRepository struct {
	BaseRepository
}

func NewServiceRequestRepository(base BaseRepository) repository.ServiceRequestRepository {
	return &serviceRequestRepository{base}
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *model.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			id, citizen_id, citizen_email, division_id, service_type_id, remarks,
			document_ref, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.CitizenID,
		req.CitizenEmail,
		req.DivisionID,
		req.ServiceTypeID,
		req.Remarks,
		req.DocumentRef,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

func (r *serviceRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.ServiceRequest, error) {
	clause, args := filterClause(filter, true)
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests` + clause + ` ORDER BY created_at DESC`

	var reqs []*model.ServiceRequest
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	return reqs, nil
}

func (r *serviceRequestRepository) CountByStatus(ctx context.Context, filter model.RequestFilter) (model.StatusCounts, error) {
	return r.countByStatus(ctx, "service_requests", filter, true)
}

func (r *serviceRequestRepository) DeleteIfPending(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM service_requests WHERE id = $1 AND status = $2`,
		id, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to delete service request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return repository.ErrStaleStatus
}

func (r *serviceRequestRepository) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	req, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := req.Subject()
	return &subject, nil
}

func (r *serviceRequestRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	return r.compareAndSetStatus(ctx, "service_requests", id, from, to, remarks)
}
