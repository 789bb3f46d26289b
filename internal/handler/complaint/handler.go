package complaint

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/internal/handler"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/service/lifecycle"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

type Handler struct {
	service *lifecycle.Service
}

func NewHandler(service *lifecycle.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	complaints := r.Group("/complaints")
	{
		complaints.POST("", h.CreateComplaint)
		complaints.GET("", h.ListComplaints)
		complaints.GET("/:id", h.GetComplaint)
		complaints.POST("/:id/transition", h.Transition)
	}
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateComplaintRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	complaint, err := h.service.CreateComplaint(c.Request.Context(), actor, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, complaint)
}

func (h *Handler) ListComplaints(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	mine, status, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.ListComplaints(c.Request.Context(), actor, mine, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetComplaint(c *gin.Context) {
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

	complaint, err := h.service.GetComplaint(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, complaint)
}

func (h *Handler) Transition(c *gin.Context) {
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

	var req model.TransitionRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	subject, err := h.service.Transition(ctx, actor, model.KindComplaint, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	complaint, err := h.service.GetComplaint(ctx, actor, id)
	handler.RespondTransitioned(c, subject, complaint, err)
}
