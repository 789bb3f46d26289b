package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type locationRepository struct {
	BaseRepository
}

func NewLocationRepository(base BaseRepository) repository.LocationRepository {
	return &locationRepository{base}
}

func (r *locationRepository) CreateLocation(ctx context.Context, node *model.LocationNode) error {
	query := `
		INSERT INTO locations (id, name, level, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	node.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, node.ID, node.Name, node.Level, node.ParentID, node.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

func (r *locationRepository) GetLocation(ctx context.Context, id uuid.UUID) (*model.LocationNode, error) {
	query := `
		SELECT id, name, level, parent_id, created_at
		FROM locations
		WHERE id = $1
	`
	var node model.LocationNode
	if err := r.db.GetContext(ctx, &node, query, id); err != nil {
		return nil, notFound(err)
	}
	return &node, nil
}

func (r *locationRepository) ListChildren(ctx context.Context, parentID *uuid.UUID) ([]*model.LocationNode, error) {
	var (
		nodes []*model.LocationNode
		err   error
	)
	if parentID == nil {
		err = r.db.SelectContext(ctx, &nodes, `
			SELECT id, name, level, parent_id, created_at
			FROM locations
			WHERE parent_id IS NULL
			ORDER BY name
		`)
	} else {
		err = r.db.SelectContext(ctx, &nodes, `
			SELECT id, name, level, parent_id, created_at
			FROM locations
			WHERE parent_id = $1
			ORDER BY name
		`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return nodes, nil
}
