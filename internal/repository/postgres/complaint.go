package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

const complaintColumns = `
	id, citizen_id, citizen_email, title, description, status, status_remarks,
	created_at, updated_at
`

type complaintRepository struct {
	BaseRepository
}

func NewComplaintRepository(base BaseRepository) repository.ComplaintRepository {
	return &complaintRepository{base}
}

func (r *complaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	query := `
		INSERT INTO complaints (
			id, citizen_id, citizen_email, title, description, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.CitizenID, c.CitizenEmail, c.Title, c.Description, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

func (r *complaintRepository) Get(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var c model.Complaint
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// List ignores DivisionID; complaints are not division-scoped.
func (r *complaintRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.Complaint, error) {
	clause, args := filterClause(filter, false)
	query := `SELECT ` + complaintColumns + ` FROM complaints` + clause + ` ORDER BY created_at DESC`

	var complaints []*model.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

func (r *complaintRepository) CountByStatus(ctx context.Context, filter model.RequestFilter) (model.StatusCounts, error) {
	return r.countByStatus(ctx, "complaints", filter, false)
}

func (r *complaintRepository) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := c.Subject()
	return &subject, nil
}

func (r *complaintRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	return r.compareAndSetStatus(ctx, "complaints", id, from, to, remarks)
}
