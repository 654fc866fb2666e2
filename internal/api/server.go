package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/history"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/config"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/logging"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfpanel-core/internal/panel"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Catalog     *catalog.Catalog
	Dispatcher  *power.Dispatcher
	Panel       *panel.Session
	History     history.Repository // optional: execution endpoints return 503 without it
	MQTT        *mqtt.Client       // optional: bridge health relay is skipped without it
	ExternalHub *Hub               // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for the RF panel.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	catalog    *catalog.Catalog
	dispatcher *power.Dispatcher
	panel      *panel.Session
	history    history.Repository
	mqtt       *mqtt.Client
	version    string
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, catalog, dispatcher, panel)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Panel == nil {
		return nil, fmt.Errorf("panel session is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		panel:      deps.Panel,
		history:    deps.History,
		mqtt:       deps.MQTT,
		version:    deps.Version,
		hub:        deps.ExternalHub,
	}
	if s.hub != nil {
		s.attachHub()
	}
	return s, nil
}

// attachHub lets new subscribers to mode.changed receive the current mode.
func (s *Server) attachHub() {
	s.hub.SetSnapshot(panel.EventModeChanged, func() any {
		return panel.ModeEvent{Mode: s.panel.Mode()}
	})
}

// Hub returns the server's WebSocket hub, or nil before Start when no
// external hub was supplied.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub (unless one was injected), relays radio bridge
// health from MQTT to WebSocket clients, and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for background goroutines
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.attachHub()
		go s.hub.Run(srvCtx)
	}

	if err := s.subscribeBridgeHealth(); err != nil {
		s.logger.Warn("failed to subscribe to bridge health for WebSocket", "error", err)
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
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
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
