package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jwalitptl/citizen-api/internal/config"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository/memory"
	"github.com/jwalitptl/citizen-api/internal/testutil"
	"github.com/jwalitptl/citizen-api/pkg/auth"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

// TestResponse is the decoded envelope.
type TestResponse struct {
	StatusCode int
	Status     string          `json:"status"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) Object() map[string]interface{} {
	var m map[string]interface{}
	_ = json.Unmarshal(r.Data, &m)
	return m
}

func (r TestResponse) List() []map[string]interface{} {
	var l []map[string]interface{}
	_ = json.Unmarshal(r.Data, &l)
	return l
}

func (r TestResponse) GetString(key string) string {
	if v, ok := r.Object()[key].(string); ok {
		return v
	}
	return ""
}

type APISuite struct {
	suite.Suite
	srv     *httptest.Server
	store   *memory.Store
	h       *testutil.Hierarchy
	citizen model.Actor
	officer model.Actor
	admin   model.Actor
	tokens  map[uuid.UUID]string
	date    string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.JWT.Secret = "integration-secret-0123"
	cfg.Storage.Driver = "memory"
	cfg.RateLimit.Enabled = false
	require.NoError(s.T(), cfg.Validate())

	s.store = memory.NewStore()
	s.h = testutil.SeedHierarchy(s.T(), s.store)

	reg := prometheus.NewRegistry()
	srv, err := New(cfg, MemoryStores(s.store), nil, logger.Nop(), metrics.New("portal", reg), reg)
	s.Require().NoError(err)
	s.srv = httptest.NewServer(srv.Engine())
	s.T().Cleanup(s.srv.Close)

	jwt := auth.NewJWTService(auth.Config{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: time.Hour})
	s.citizen = testutil.Citizen()
	s.officer = testutil.OfficerActor(s.h.O1)
	s.admin = testutil.Admin()
	s.tokens = make(map[uuid.UUID]string)
	for _, a := range []model.Actor{s.citizen, s.officer, s.admin} {
		token, err := jwt.GenerateAccessToken(a)
		s.Require().NoError(err)
		s.tokens[a.UserID] = token
	}

	s.date = time.Now().In(cfg.Location()).AddDate(0, 0, 7).Format(model.DateLayout)
}

func (s *APISuite) makeRequest(method, path string, body interface{}, actor *model.Actor) TestResponse {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.srv.URL+"/api/v1"+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+s.tokens[actor.UserID])
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := TestResponse{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

func (s *APISuite) book(actor model.Actor, start string) TestResponse {
	return s.makeRequest(http.MethodPost, "/appointments", map[string]interface{}{
		"province_id":      s.h.Western.ID,
		"district_id":      s.h.Colombo.ID,
		"division_id":      s.h.ColomboCentral.ID,
		"date":             s.date,
		"start_time":       start,
		"appointment_type": model.AppointmentTypeCertificate,
		"reason":           "Character certificate",
	}, &actor)
}

func (s *APISuite) TestHealthIsPublic() {
	resp, err := http.Get(s.srv.URL + "/api/v1/health/live")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(s.srv.URL + "/api/v1/health/ready")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(s.srv.URL + "/metrics")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestProtectedRoutesNeedToken() {
	resp := s.makeRequest(http.MethodGet, "/locations/provinces", nil, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("UNAUTHORIZED", resp.Code)
}

func (s *APISuite) TestLocationCascade() {
	resp := s.makeRequest(http.MethodGet, "/locations/provinces", nil, &s.citizen)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Require().Len(resp.List(), 1)
	s.Equal("Western", resp.List()[0]["name"])

	resp = s.makeRequest(http.MethodGet, "/locations/districts/"+s.h.Western.ID.String(), nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 2)

	resp = s.makeRequest(http.MethodGet, "/locations/divisions/"+s.h.Gampaha.ID.String(), nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Empty(resp.List())

	resp = s.makeRequest(http.MethodGet, "/locations/divisions/"+s.h.ColomboCentral.ID.String()+"/officers", nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Require().Len(resp.List(), 1)
	s.Equal(s.h.O1.ID.String(), resp.List()[0]["id"])

	resp = s.makeRequest(http.MethodGet, "/locations/districts/not-a-uuid", nil, &s.citizen)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestBookingFlow() {
	resp := s.book(s.citizen, "09:00")
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.Message)
	s.Equal("09:30", resp.GetString("end_time"))
	s.Equal("PENDING", resp.GetString("status"))
	aptID := resp.GetString("id")

	resp = s.book(s.officer, "10:00")
	s.Equal(http.StatusForbidden, resp.StatusCode, "only citizens book")

	other := testutil.Citizen()
	jwt := auth.NewJWTService(auth.Config{Secret: "integration-secret-0123", Issuer: "citizen-portal", Expiry: time.Hour})
	token, err := jwt.GenerateAccessToken(other)
	s.Require().NoError(err)
	s.tokens[other.UserID] = token
	resp = s.book(other, "09:00")
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("SLOT_CONFLICT", resp.Code)

	path := fmt.Sprintf("/appointments/busy-slots?officerId=%s&date=%s", s.h.O1.ID, s.date)
	resp = s.makeRequest(http.MethodGet, path, nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	var busy []string
	s.Require().NoError(json.Unmarshal(resp.Data, &busy))
	s.Equal([]string{"09:00"}, busy)

	path = fmt.Sprintf("/appointments/available-slots?officerId=%s&date=%s", s.h.O1.ID, s.date)
	resp = s.makeRequest(http.MethodGet, path, nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.NotContains(resp.Object()["available"], "09:00")

	resp = s.makeRequest(http.MethodGet, "/notifications/"+s.h.O1.ID.String()+"/unread-count", nil, &s.officer)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.EqualValues(1, resp.Object()["count"])

	resp = s.makeRequest(http.MethodPost, "/appointments/"+aptID+"/transition", map[string]string{"status": "ACCEPTED"}, &s.officer)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Equal("ACCEPTED", resp.GetString("status"))

	resp = s.makeRequest(http.MethodGet, "/appointments?scope=mine", nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 1)
}

func (s *APISuite) TestIncompleteSelection() {
	resp := s.makeRequest(http.MethodPost, "/appointments", map[string]interface{}{
		"province_id":      s.h.Western.ID,
		"district_id":      s.h.Colombo.ID,
		"date":             s.date,
		"start_time":       "10:00",
		"appointment_type": model.AppointmentTypeGeneral,
		"reason":           "Land registry",
	}, &s.citizen)
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("INCOMPLETE_SELECTION", resp.Code)
}

func (s *APISuite) TestServiceRequestFlow() {
	citizen := s.citizen
	body := map[string]interface{}{
		"service_type_id": s.h.ServiceType.ID,
		"division_id":     s.h.ColomboCentral.ID,
		"remarks":         "for school admission",
	}

	resp := s.makeRequest(http.MethodGet, "/service-types", nil, &citizen)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 1)

	resp = s.makeRequest(http.MethodPost, "/service-requests", body, &citizen)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.Message)
	id := resp.GetString("id")

	resp = s.makeRequest(http.MethodPost, "/service-requests/"+id+"/transition", map[string]string{"status": "COMPLETED"}, &citizen)
	s.True(resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusConflict)

	resp = s.makeRequest(http.MethodPost, "/service-requests/"+id+"/transition", map[string]string{"status": "REJECTED"}, &s.officer)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("VALIDATION_ERROR", resp.Code)

	resp = s.makeRequest(http.MethodPost, "/service-requests/"+id+"/transition", map[string]string{"status": "REJECTED", "remarks": "incomplete documents"}, &s.officer)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Equal("REJECTED", resp.GetString("status"))
	s.Equal("incomplete documents", resp.GetString("status_remarks"))

	resp = s.makeRequest(http.MethodGet, "/notifications/"+citizen.UserID.String(), nil, &citizen)
	s.Require().True(resp.IsSuccess())
	notifications := resp.List()
	s.Require().Len(notifications, 1)
	s.Contains(notifications[0]["message"], "incomplete documents")
	s.Equal(false, notifications[0]["read"])

	notificationID := notifications[0]["id"].(string)
	resp = s.makeRequest(http.MethodPatch, "/notifications/"+notificationID+"/read", nil, &citizen)
	s.Require().True(resp.IsSuccess())
	s.Equal(true, resp.Object()["read"])

	resp = s.makeRequest(http.MethodGet, "/notifications/"+citizen.UserID.String(), nil, &s.officer)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodGet, "/service-requests/stats", nil, &s.admin)
	s.Require().True(resp.IsSuccess())
	s.EqualValues(1, resp.Object()["total"])
	s.EqualValues(1, resp.Object()["active_officers"])
	complaints, ok := resp.Object()["complaints"].(map[string]interface{})
	s.Require().True(ok, "admin stats carry complaint counts")
	s.EqualValues(0, complaints["total"])

	resp = s.makeRequest(http.MethodGet, "/service-requests/stats", nil, &s.officer)
	s.Require().True(resp.IsSuccess())
	s.NotContains(resp.Object(), "complaints")
	s.NotContains(resp.Object(), "active_officers")

	resp = s.makeRequest(http.MethodDelete, "/service-requests/"+id, nil, &citizen)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("INVALID_TRANSITION", resp.Code)
}

func (s *APISuite) TestDeletePendingRequest() {
	resp := s.makeRequest(http.MethodPost, "/service-requests", map[string]interface{}{
		"service_type_id": s.h.ServiceType.ID,
		"division_id":     s.h.ColomboCentral.ID,
	}, &s.citizen)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.Message)
	id := resp.GetString("id")

	resp = s.makeRequest(http.MethodDelete, "/service-requests/"+id, nil, &s.citizen)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.makeRequest(http.MethodGet, "/service-requests/"+id, nil, &s.citizen)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestComplaintFlow() {
	resp := s.makeRequest(http.MethodPost, "/complaints", map[string]string{
		"title":       "Street lights",
		"description": "Broken for a week",
	}, &s.citizen)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.Message)
	id := resp.GetString("id")

	resp = s.makeRequest(http.MethodPost, "/complaints/"+id+"/transition", map[string]string{"status": "IN_PROGRESS"}, &s.officer)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodPost, "/complaints/"+id+"/transition", map[string]string{"status": "IN_PROGRESS"}, &s.admin)
	s.Require().True(resp.IsSuccess(), resp.Message)

	resp = s.makeRequest(http.MethodGet, "/complaints?scope=mine&status=in_progress", nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 1)

	resp = s.makeRequest(http.MethodGet, "/complaints?scope=everything", nil, &s.citizen)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestDeactivateOfficer() {
	path := "/officers/" + s.h.O1.ID.String() + "/deactivate"

	resp := s.makeRequest(http.MethodPatch, path, nil, &s.officer)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodPatch, path, nil, &s.admin)
	s.Require().True(resp.IsSuccess(), resp.Message)

	resp = s.makeRequest(http.MethodGet, "/locations/divisions/"+s.h.ColomboCentral.ID.String()+"/officers", nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Empty(resp.List())

	resp = s.book(s.citizen, "11:00")
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = s.makeRequest(http.MethodGet, "/officers", nil, &s.citizen)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodGet, "/officers", nil, &s.admin)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Require().Len(resp.List(), 1)
	s.Equal(s.h.O1.ID.String(), resp.List()[0]["id"])
	s.Equal(false, resp.List()[0]["active"])
}

func (s *APISuite) TestServiceCatalogueAdmin() {
	resp := s.makeRequest(http.MethodPost, "/service-types", map[string]string{"name": "Land deed copy"}, &s.citizen)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodPost, "/service-types", map[string]string{"name": "Land deed copy"}, &s.admin)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.Message)
	s.Equal(true, resp.Object()["active"])
	id := resp.GetString("id")

	resp = s.makeRequest(http.MethodPut, "/service-types/"+id, map[string]string{"name": "Certified land deed", "description": "Certified copy"}, &s.admin)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Equal("Certified land deed", resp.GetString("name"))

	resp = s.makeRequest(http.MethodPatch, "/service-types/"+id+"/deactivate", nil, &s.officer)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.makeRequest(http.MethodPatch, "/service-types/"+id+"/deactivate", nil, &s.admin)
	s.Require().True(resp.IsSuccess(), resp.Message)
	s.Equal(false, resp.Object()["active"])

	resp = s.makeRequest(http.MethodGet, "/service-types", nil, &s.citizen)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 1)

	resp = s.makeRequest(http.MethodGet, "/service-types", nil, &s.admin)
	s.Require().True(resp.IsSuccess())
	s.Len(resp.List(), 2)

	resp = s.makeRequest(http.MethodPost, "/service-requests", map[string]interface{}{
		"service_type_id": id,
		"division_id":     s.h.ColomboCentral.ID,
	}, &s.citizen)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("VALIDATION_ERROR", resp.Code)
}

func (s *APISuite) TestNotificationPaging() {
	at := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Notifications().Create(context.Background(), &model.Notification{
			RecipientUserID: s.citizen.UserID,
			EntityKind:      model.KindServiceRequest,
			EntityID:        uuid.New(),
			Message:         fmt.Sprintf("update %d", i),
			CreatedAt:       at.Add(time.Duration(i) * time.Minute),
		}))
	}
	base := "/notifications/" + s.citizen.UserID.String()

	resp := s.makeRequest(http.MethodGet, base+"?limit=2", nil, &s.citizen)
	s.Require().True(resp.IsSuccess(), resp.Message)
	page := resp.List()
	s.Require().Len(page, 2)
	s.Equal("update 4", page[0]["message"])

	resp = s.makeRequest(http.MethodGet, base+"?limit=10&before="+page[1]["id"].(string), nil, &s.citizen)
	s.Require().True(resp.IsSuccess(), resp.Message)
	rest := resp.List()
	s.Require().Len(rest, 3)
	s.Equal("update 2", rest[0]["message"])
	s.Equal("update 0", rest[2]["message"])

	resp = s.makeRequest(http.MethodGet, base+"?limit=0", nil, &s.citizen)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp = s.makeRequest(http.MethodGet, base+"?before=latest", nil, &s.citizen)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestNewServicesRejectsBadGrid(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduling.DailyGrid = []string{"23:50"}
	_, err := NewServices(cfg, MemoryStores(memory.NewStore()), logger.Nop(), metrics.NewForTest())
	assert.Error(t, err)
}
