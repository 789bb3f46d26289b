package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/internal/handler"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/service/appointment"
	"github.com/jwalitptl/citizen-api/internal/service/lifecycle"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

type Handler struct {
	service   *appointment.Service
	lifecycle *lifecycle.Service
}

func NewHandler(service *appointment.Service, lifecycle *lifecycle.Service) *Handler {
	return &Handler{service: service, lifecycle: lifecycle}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/busy-slots", h.BusySlots)
		appointments.GET("/available-slots", h.AvailableSlots)
		appointments.POST("", h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/transition", h.Transition)
	}
}

func (h *Handler) BusySlots(c *gin.Context) {
	officerID, err := handler.UUIDQuery(c, "officerId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	busy, err := h.service.BusySlots(c.Request.Context(), officerID, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, busy)
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	officerID, err := handler.UUIDQuery(c, "officerId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	availability, err := h.service.Availability(c.Request.Context(), officerID, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, availability)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.BookAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.Book(c.Request.Context(), actor, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
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

	list, err := h.lifecycle.ListAppointments(c.Request.Context(), actor, mine, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
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

	apt, err := h.lifecycle.GetAppointment(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
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
	subject, err := h.lifecycle.Transition(ctx, actor, model.KindAppointment, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.lifecycle.GetAppointment(ctx, actor, id)
	handler.RespondTransitioned(c, subject, apt, err)
}
