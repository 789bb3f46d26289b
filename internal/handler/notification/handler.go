package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/internal/handler"
	"github.com/jwalitptl/citizen-api/internal/service/notification"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the inbox. The list routes take a user id and the
// read route a notification id in the same :id segment. The list pages with
// ?before=<notification id>&limit=<n>.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("/:id", h.ListNotifications)
		notifications.GET("/:id/unread-count", h.UnreadCount)
		notifications.PATCH("/:id/read", h.MarkRead)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	userID, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	page, err := handler.PageParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.List(c.Request.Context(), actor, userID, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	userID, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), actor, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"count": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}
