package servicerequest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/citizen-api/internal/middleware"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/repository/memory"
	"github.com/jwalitptl/citizen-api/internal/service/lifecycle"
	"github.com/jwalitptl/citizen-api/internal/service/location"
	"github.com/jwalitptl/citizen-api/internal/service/notification"
	"github.com/jwalitptl/citizen-api/internal/testutil"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenReads serves the lifecycle path but fails full-row reads.
type brokenReads struct {
	repository.ServiceRequestRepository
}

func (brokenReads) Get(context.Context, uuid.UUID) (*model.ServiceRequest, error) {
	return nil, errors.New("connection reset by peer")
}

func newRouter(t *testing.T, requests repository.ServiceRequestRepository, store *memory.Store, actor model.Actor) *gin.Engine {
	t.Helper()
	m := metrics.NewForTest()
	locations := location.NewService(store.Locations(), store.Officers(), time.Minute, logger.Nop())
	notifier := notification.NewService(store.Notifications(), nil, notification.Config{RetryAttempts: 1}, logger.Nop(), m)
	svc := lifecycle.NewService(requests, store.Complaints(), store.Appointments(), store.ServiceTypes(), locations, notifier, logger.Nop(), m)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextActor, actor)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func transition(t *testing.T, r *gin.Engine, id uuid.UUID, status model.Status) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body := strings.NewReader(`{"status":"` + string(status) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/service-requests/"+id.String()+"/transition", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp struct {
		Status string                 `json:"status"`
		Code   string                 `json:"code"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp.Data
}

func TestTransitionRendersReloadedRequest(t *testing.T) {
	store := memory.NewStore()
	h := testutil.SeedHierarchy(t, store)
	citizen := testutil.Citizen()
	sr := &model.ServiceRequest{CitizenID: citizen.UserID, DivisionID: h.ColomboCentral.ID, ServiceTypeID: h.ServiceType.ID, Status: model.StatusPending}
	require.NoError(t, store.ServiceRequests().Create(context.Background(), sr))

	r := newRouter(t, store.ServiceRequests(), store, testutil.OfficerActor(h.O1))
	w, data := transition(t, r, sr.ID, model.StatusInProgress)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", data["status"])
	assert.Equal(t, h.ServiceType.ID.String(), data["service_type_id"])
}

func TestTransitionSurvivesFailedReload(t *testing.T) {
	store := memory.NewStore()
	h := testutil.SeedHierarchy(t, store)
	citizen := testutil.Citizen()
	sr := &model.ServiceRequest{CitizenID: citizen.UserID, CitizenEmail: citizen.Email, DivisionID: h.ColomboCentral.ID, ServiceTypeID: h.ServiceType.ID, Status: model.StatusPending}
	require.NoError(t, store.ServiceRequests().Create(context.Background(), sr))

	r := newRouter(t, brokenReads{store.ServiceRequests()}, store, testutil.OfficerActor(h.O1))
	w, data := transition(t, r, sr.ID, model.StatusInProgress)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "IN_PROGRESS", data["status"])
	assert.Equal(t, sr.ID.String(), data["id"])
	assert.Equal(t, string(model.KindServiceRequest), data["kind"])
	assert.NotContains(t, data, "citizen_email")

	stored, err := store.ServiceRequests().Get(context.Background(), sr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, stored.Status)

	notices, err := store.Notifications().ListByRecipient(context.Background(), citizen.UserID, nil, 10)
	require.NoError(t, err)
	assert.Len(t, notices, 1)

	// The change is durable, so repeating it is a conflict.
	w, _ = transition(t, r, sr.ID, model.StatusInProgress)
	assert.Equal(t, http.StatusConflict, w.Code)
}
