package servicerequest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/internal/handler"
	"github.com/jwalitptl/citizen-api/internal/middleware"
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
	types := r.Group("/service-types")
	{
		types.GET("", h.ListServiceTypes)
		types.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateServiceType)
		types.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateServiceType)
		types.PATCH("/:id/deactivate", middleware.RequireRole(model.RoleAdmin), h.DeactivateServiceType)
	}

	requests := r.Group("/service-requests")
	{
		requests.POST("", h.CreateServiceRequest)
		requests.GET("", h.ListServiceRequests)
		requests.GET("/stats", h.Stats)
		requests.GET("/:id", h.GetServiceRequest)
		requests.POST("/:id/transition", h.Transition)
		requests.DELETE("/:id", h.DeleteServiceRequest)
	}
}

func (h *Handler) ListServiceTypes(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.ServiceTypes(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) CreateServiceType(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var input model.ServiceTypeInput
	if err := handler.BindJSON(c, &input); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	st, err := h.service.CreateServiceType(c.Request.Context(), actor, input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, st)
}

func (h *Handler) UpdateServiceType(c *gin.Context) {
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

	var input model.ServiceTypeInput
	if err := handler.BindJSON(c, &input); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	st, err := h.service.UpdateServiceType(c.Request.Context(), actor, id, input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

func (h *Handler) DeactivateServiceType(c *gin.Context) {
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

	st, err := h.service.DeactivateServiceType(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

func (h *Handler) CreateServiceRequest(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateServiceRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sr, err := h.service.CreateServiceRequest(c.Request.Context(), actor, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, sr)
}

func (h *Handler) ListServiceRequests(c *gin.Context) {
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

	list, err := h.service.ListServiceRequests(c.Request.Context(), actor, mine, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Stats(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) GetServiceRequest(c *gin.Context) {
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

	sr, err := h.service.GetServiceRequest(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sr)
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
	subject, err := h.service.Transition(ctx, actor, model.KindServiceRequest, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sr, err := h.service.GetServiceRequest(ctx, actor, id)
	handler.RespondTransitioned(c, subject, sr, err)
}

func (h *Handler) DeleteServiceRequest(c *gin.Context) {
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

	if err := h.service.DeleteServiceRequest(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
