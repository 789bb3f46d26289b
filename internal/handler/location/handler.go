package location

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/internal/handler"
	"github.com/jwalitptl/citizen-api/internal/middleware"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/service/location"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

type Handler struct {
	service *location.Service
}

func NewHandler(service *location.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the province > district > division cascade. Path
// segments share the :id name so gin can route them from one tree.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	locations := r.Group("/locations")
	{
		locations.GET("/provinces", h.Provinces)
		locations.GET("/districts/:id", h.Districts)
		locations.GET("/divisions/:id", h.Divisions)
		locations.GET("/divisions/:id/officers", h.Officers)
	}

	officers := r.Group("/officers", middleware.RequireRole(model.RoleAdmin))
	{
		officers.GET("", h.ListOfficers)
		officers.PATCH("/:id/deactivate", h.DeactivateOfficer)
	}
}

func (h *Handler) Provinces(c *gin.Context) {
	list, err := h.service.Provinces(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Districts(c *gin.Context) {
	provinceID, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.DistrictsOf(c.Request.Context(), provinceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Divisions(c *gin.Context) {
	districtID, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.DivisionsOf(c.Request.Context(), districtID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Officers(c *gin.Context) {
	divisionID, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.OfficersOf(c.Request.Context(), divisionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) ListOfficers(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.ListOfficers(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) DeactivateOfficer(c *gin.Context) {
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

	if err := h.service.DeactivateOfficer(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "active": false})
}
