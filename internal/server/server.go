package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/citizen-api/internal/config"
	appointmenthandler "github.com/jwalitptl/citizen-api/internal/handler/appointment"
	complainthandler "github.com/jwalitptl/citizen-api/internal/handler/complaint"
	"github.com/jwalitptl/citizen-api/internal/handler/health"
	locationhandler "github.com/jwalitptl/citizen-api/internal/handler/location"
	notificationhandler "github.com/jwalitptl/citizen-api/internal/handler/notification"
	"github.com/jwalitptl/citizen-api/internal/handler/servicerequest"
	"github.com/jwalitptl/citizen-api/internal/middleware"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/repository/memory"
	"github.com/jwalitptl/citizen-api/internal/repository/postgres"
	"github.com/jwalitptl/citizen-api/internal/router"
	"github.com/jwalitptl/citizen-api/internal/service/appointment"
	"github.com/jwalitptl/citizen-api/internal/service/lifecycle"
	"github.com/jwalitptl/citizen-api/internal/service/location"
	"github.com/jwalitptl/citizen-api/internal/service/notification"
	"github.com/jwalitptl/citizen-api/internal/service/slot"
	"github.com/jwalitptl/citizen-api/pkg/auth"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

// Stores bundles one implementation of every repository.
type Stores struct {
	Locations       repository.LocationRepository
	Officers        repository.OfficerRepository
	ServiceTypes    repository.ServiceTypeRepository
	Appointments    repository.AppointmentRepository
	ServiceRequests repository.ServiceRequestRepository
	Complaints      repository.ComplaintRepository
	Notifications   repository.NotificationRepository
	// Outbox may be nil; no push or e-mail events are emitted then.
	Outbox repository.OutboxRepository
}

func PostgresStores(base postgres.BaseRepository) Stores {
	return Stores{
		Locations:       postgres.NewLocationRepository(base),
		Officers:        postgres.NewOfficerRepository(base),
		ServiceTypes:    postgres.NewServiceTypeRepository(base),
		Appointments:    postgres.NewAppointmentRepository(base),
		ServiceRequests: postgres.NewServiceRequestRepository(base),
		Complaints:      postgres.NewComplaintRepository(base),
		Notifications:   postgres.NewNotificationRepository(base),
		Outbox:          postgres.NewOutboxRepository(base),
	}
}

// MemoryStores leaves the outbox unset: no worker can drain an in-process store.
func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Locations:       s.Locations(),
		Officers:        s.Officers(),
		ServiceTypes:    s.ServiceTypes(),
		Appointments:    s.Appointments(),
		ServiceRequests: s.ServiceRequests(),
		Complaints:      s.Complaints(),
		Notifications:   s.Notifications(),
	}
}

// Services are the core components built over one set of stores.
type Services struct {
	Locations     *location.Service
	Slots         *slot.Allocator
	Appointments  *appointment.Service
	Lifecycle     *lifecycle.Service
	Notifications *notification.Service
}

func NewServices(cfg *config.Config, stores Stores, log *logger.Logger, m *metrics.Metrics) (*Services, error) {
	grid, err := slot.NewGrid(cfg.Scheduling.DailyGrid, cfg.Scheduling.SlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("invalid slot grid: %w", err)
	}

	locations := location.NewService(stores.Locations, stores.Officers, cfg.Cache.LocationTTL, log)
	notifications := notification.NewService(stores.Notifications, stores.Outbox, notification.Config{
		RetryAttempts: cfg.Notification.RetryAttempts,
		RetryDelay:    cfg.Notification.RetryDelay,
		ListLimit:     cfg.Notification.ListLimit,
	}, log, m)
	slots := slot.NewAllocator(stores.Appointments, stores.Officers, grid, log, m)
	appointments := appointment.NewService(locations, slots, notifications, appointment.Config{
		MaxAdvanceDays: cfg.Scheduling.MaxAdvanceDays,
		Location:       cfg.Location(),
	}, log)
	lc := lifecycle.NewService(
		stores.ServiceRequests,
		stores.Complaints,
		stores.Appointments,
		stores.ServiceTypes,
		locations,
		notifications,
		log,
		m,
	)

	return &Services{
		Locations:     locations,
		Slots:         slots,
		Appointments:  appointments,
		Lifecycle:     lc,
		Notifications: notifications,
	}, nil
}

// Server owns the HTTP surface of the portal.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	services   *Services
	router     *router.Router
	httpServer *http.Server
}

func New(
	cfg *config.Config,
	stores Stores,
	checks map[string]health.Checker,
	log *logger.Logger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) (*Server, error) {
	services, err := NewServices(cfg, stores, log, m)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})

	r := router.NewRouter(
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RPS),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			Timeout:          time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
		middleware.NewAuthMiddleware(tokens),
		m,
		gatherer,
		health.NewHandler(checks),
		locationhandler.NewHandler(services.Locations),
		appointmenthandler.NewHandler(services.Appointments, services.Lifecycle),
		servicerequest.NewHandler(services.Lifecycle),
		complainthandler.NewHandler(services.Lifecycle),
		notificationhandler.NewHandler(services.Notifications),
	)
	r.Setup()

	return &Server{
		config:   cfg,
		logger:   log,
		services: services,
		router:   r,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r.Engine(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.router.Engine()
}

func (s *Server) Services() *Services {
	return s.services
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr, "storage", s.config.Storage.Driver)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
