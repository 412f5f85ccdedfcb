package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService      driving.AuthService
	docService       driving.DocumentService
	redactionService driving.RedactionService
	queryService     driving.QueryService

	// Infrastructure
	db            Pinger // document store health check (optional)
	redisClient   Pinger // Redis health check (optional)
	uploadLimiter *UploadRateLimiter
	logger        *slog.Logger
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// UploadRateLimit is the number of document initiations allowed per
	// loan id per second. Zero disables limiting.
	UploadRateLimit int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		UploadRateLimit: 5,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	docService driving.DocumentService,
	redactionService driving.RedactionService,
	queryService driving.QueryService,
	db Pinger, // can be nil
	redisClient Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		authService:      authService,
		docService:       docService,
		redactionService: redactionService,
		queryService:     queryService,
		db:               db,
		redisClient:      redisClient,
		uploadLimiter:    NewUploadRateLimiter(cfg.UploadRateLimit),
		logger:           logger,
	}

	logging := NewLoggingMiddleware(logger)
	recovery := NewRecoveryMiddleware(logger)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Document endpoints (authenticated)
	s.router.Handle("POST /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleInitiateDocument)))
	s.router.Handle("GET /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("POST /api/v1/documents/{id}/ingest",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQueueIngest)))

	// Task endpoints (authenticated)
	s.router.Handle("GET /api/v1/tasks/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetTask)))

	// Redaction endpoints (authenticated; token resolution internal-only)
	s.router.Handle("POST /api/v1/redact",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRedact)))
	s.router.Handle("POST /api/v1/tokens/resolve",
		authMiddleware.Authenticate(
			authMiddleware.RequireInternal(http.HandlerFunc(s.handleResolveToken))))

	// Query endpoints (authenticated)
	s.router.Handle("POST /api/v1/query",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuery)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
