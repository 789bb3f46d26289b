// Package service holds helpers shared by the core services.
package service

import (
	"errors"

	"github.com/jwalitptl/citizen-api/internal/repository"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
)

// StoreError maps a store error onto the application taxonomy. Anything that is
// not a known sentinel is treated as the store being unavailable.
func StoreError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict("slot is already booked", err)
	default:
		return apperrors.Unavailable(err)
	}
}
