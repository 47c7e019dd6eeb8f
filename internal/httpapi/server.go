package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gatewise/gatewise-core/internal/access"
	"github.com/gatewise/gatewise-core/internal/events"
	"github.com/gatewise/gatewise-core/internal/garage"
	"github.com/gatewise/gatewise-core/internal/infrastructure/config"
	"github.com/gatewise/gatewise-core/internal/infrastructure/logging"
	"github.com/gatewise/gatewise-core/internal/notify"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// GarageController is the door surface the API exposes. Nil when the
// garage module is disabled in configuration.
type GarageController interface {
	Trigger(source string) error
	State() garage.State
	AutoClosePending() bool
	CancelAutoClose() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	Logger      *logging.Logger
	Engine      *access.Engine
	Registry    *access.Registry
	Schedule    *access.Schedule
	Garage      GarageController // optional
	Events      events.Repository
	EventsHub   *events.Hub
	Notifier    notify.Notifier
	AdminSecret string
	Version     string
}

// Server is the HTTP API server for GateWise.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// hub that streams live events to presentation clients.
type Server struct {
	cfg         config.APIConfig
	logger      *logging.Logger
	engine      *access.Engine
	registry    *access.Registry
	schedule    *access.Schedule
	garage      GarageController
	events      events.Repository
	eventsHub   *events.Hub
	notifier    notify.Notifier
	adminSecret string
	version     string

	server *http.Server
	hub    *wsHub
	cancel context.CancelFunc
}

// New creates an API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil || deps.Registry == nil || deps.Schedule == nil {
		return nil, fmt.Errorf("access engine, registry and schedule are required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event repository is required")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		engine:      deps.Engine,
		registry:    deps.Registry,
		schedule:    deps.Schedule,
		garage:      deps.Garage,
		events:      deps.Events,
		eventsHub:   deps.EventsHub,
		notifier:    notifier,
		adminSecret: deps.AdminSecret,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, bridges the event stream into it, and
// launches the HTTP listener in a background goroutine. Stop with
// Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = newWSHub(s.logger)
	if s.eventsHub != nil {
		go s.bridgeEvents(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server started", "address", s.server.Addr)
	return nil
}

// bridgeEvents forwards the live event stream to WebSocket clients.
func (s *Server) bridgeEvents(ctx context.Context) {
	sub := s.eventsHub.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return
		case event, ok := <-sub.Events():
			if !ok {
				s.hub.closeAll()
				return
			}
			s.hub.Broadcast(string(event.Category), event)
		}
	}
}

// Close gracefully shuts down the API server, waiting up to ten seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
