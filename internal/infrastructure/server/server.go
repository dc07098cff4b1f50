package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/isooko/gateway/internal/api/http"
	"github.com/isooko/gateway/internal/api/middleware"
	"github.com/isooko/gateway/internal/api/ws"
	"github.com/isooko/gateway/internal/assistant"
	"github.com/isooko/gateway/internal/domain/relay"
	"github.com/isooko/gateway/internal/domain/session"
	"github.com/isooko/gateway/internal/infrastructure/config"
	"github.com/isooko/gateway/internal/infrastructure/logging"
	"github.com/isooko/gateway/internal/infrastructure/monitoring"
	"github.com/isooko/gateway/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	assistant *assistant.Client
	registry  *session.Registry
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.ForLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Isooko Gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("assistant_id", cfg.Upstream.AssistantID),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// Request tracing, emitted through the structured log
	tracer := tracing.New("gateway", logger.Logger)

	// Upstream assistant client
	client := assistant.New(assistant.Config{
		APIKey:            cfg.Upstream.APIKey,
		AssistantID:       cfg.Upstream.AssistantID,
		BaseURL:           cfg.Upstream.BaseURL,
		Timeout:           cfg.Upstream.Timeout,
		MaxRetries:        cfg.Upstream.MaxRetries,
		PollInterval:      cfg.Upstream.PollInterval,
		RunTimeout:        cfg.Upstream.RunTimeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
	}, logger, metrics)

	// Session registry and streaming relay
	registry := session.NewRegistry(logger)
	turnRelay := relay.New(client, registry, cfg.Relay.TurnTimeout, logger, metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Create handlers
	handlers := apihttp.NewHandlers(client, logger)
	wsHandler := ws.NewHandler(registry, turnRelay, logger, metrics)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/assistant/info", handlers.AssistantInfo)
	router.POST("/chat", handlers.Chat)

	// WebSocket
	router.GET("/ws/chat/:client_id", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		assistant: client,
		registry:  registry,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops. A server stopped
// by Shutdown returns nil.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight HTTP requests, then closes live WebSocket
// sessions. Hijacked connections are not covered by http.Server.Shutdown,
// so the registry closes them explicitly.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.registry.CloseAll()

	_ = s.logger.Sync()
	return err
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
