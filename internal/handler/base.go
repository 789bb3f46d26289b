package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/citizen-api/internal/middleware"
	"github.com/jwalitptl/citizen-api/internal/model"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

// Actor returns the authenticated caller or an UNAUTHORIZED error.
func Actor(c *gin.Context) (model.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, apperrors.Unauthorized(fmt.Errorf("no actor in context"))
	}
	return actor, nil
}

// UUIDParam parses a path parameter, failing with VALIDATION_ERROR.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// UUIDQuery parses a required query parameter.
func UUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, apperrors.Validation(fmt.Sprintf("%s is required", name), nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// ListParams reads ?scope=mine and ?status= from a list request.
func ListParams(c *gin.Context) (mine bool, status model.Status, err error) {
	switch c.Query("scope") {
	case "", "all":
	case "mine":
		mine = true
	default:
		return false, "", apperrors.Validation("scope must be mine or all", nil)
	}

	if raw := c.Query("status"); raw != "" {
		status = model.Status(strings.ToUpper(raw))
		if !status.Valid() {
			return false, "", apperrors.Validation(fmt.Sprintf("unknown status %q", raw), nil)
		}
	}
	return mine, status, nil
}

// BindJSON decodes the body, failing with VALIDATION_ERROR.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("invalid request body", err)
	}
	return nil
}

// PageParams reads ?before=<notification id> and ?limit=<n> from an inbox request.
func PageParams(c *gin.Context) (model.NotificationPage, error) {
	var page model.NotificationPage
	if raw := c.Query("before"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return page, apperrors.Validation("invalid before", err)
		}
		page.Before = &id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, apperrors.Validation("limit must be a positive integer", err)
		}
		page.Limit = limit
	}
	return page, nil
}

// RespondTransitioned renders the entity re-read after a committed transition.
// The status change is already durable, so a failed re-read degrades to the
// subject the transition returned instead of an error.
func RespondTransitioned(c *gin.Context, subject *model.Subject, entity interface{}, readErr error) {
	if readErr != nil {
		log.Warn().
			Err(readErr).
			Str("request_id", c.GetString(middleware.ContextRequestID)).
			Str("entity_kind", string(subject.Kind)).
			Str("entity_id", subject.ID.String()).
			Str("status", string(subject.Status)).
			Msg("Failed to reload entity after transition")
		httputil.RespondWithSuccess(c, subject)
		return
	}
	httputil.RespondWithSuccess(c, entity)
}
