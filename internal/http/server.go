// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/config"
	dispatchHTTP "github.com/gsPatrick/garimponos-sign/internal/dispatch/http"
	documentHTTP "github.com/gsPatrick/garimponos-sign/internal/document/http"
	signingHTTP "github.com/gsPatrick/garimponos-sign/internal/signing/http"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is built separately via
// SetupRouter once the handlers are available.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the Gin router with all middleware and routes.
//
// Route groups:
//   - /health, /ready: liveness and readiness probes
//   - /v1: owner-facing document API and the delivery result webhook
//   - /sign/:token: public token-addressed signing flow (rate limited per IP)
//
// metricsMiddleware may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	cfg *config.Config,
	documentHandler *documentHTTP.DocumentHandler,
	sessionHandler *signingHTTP.SessionHandler,
	deliveryHandler *dispatchHTTP.DeliveryHandler,
	metricsMiddleware gin.HandlerFunc,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsMiddleware != nil {
		router.Use(metricsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Owner-facing API
	v1 := router.Group("/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("", documentHandler.CreateHandler)
			documents.GET("", documentHandler.ListHandler)
			documents.GET("/:documentId", documentHandler.GetHandler)
			documents.PATCH("/:documentId", documentHandler.UpdateHandler)
			documents.POST("/:documentId/cancel", documentHandler.CancelHandler)
			documents.POST("/:documentId/signers", documentHandler.AttachSignerHandler)
			documents.POST("/:documentId/signers/:signerId/invite", documentHandler.InviteSignerHandler)
			documents.POST("/:documentId/signers/:signerId/resend", documentHandler.ResendInvitationHandler)
			documents.GET("/:documentId/timeline", documentHandler.TimelineHandler)
		}

		// Delivery result callback from the external notification service
		v1.POST("/deliveries/:deliveryId/result", deliveryHandler.ResultHandler)
	}

	// Public signing surface. The token in the path is the only credential, so
	// the whole group is rate limited per client IP.
	sign := router.Group("/sign/:token")
	if cfg.RateLimitSignEnabled {
		sign.Use(SignRateLimitMiddleware(cfg.RateLimitSignRequestsPerSec, cfg.RateLimitSignBurst, s.logger))
	}
	{
		sign.GET("", sessionHandler.ResolveHandler)
		sign.POST("/identify", sessionHandler.IdentifyHandler)
		sign.POST("/signature", sessionHandler.CaptureSignatureHandler)
		sign.POST("/position", sessionHandler.PlaceSignatureHandler)
		sign.POST("/otp/start", sessionHandler.StartOtpHandler)
		sign.POST("/otp/verify", sessionHandler.VerifyOtpHandler)
		sign.POST("/commit", sessionHandler.CommitHandler)
		sign.POST("/decline", sessionHandler.DeclineHandler)
	}

	s.router = router
}

// healthHandler returns a simple liveness response.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// is the only hard dependency checked.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness check failed", slog.Any("error", err))
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the configured router. Used by integration tests to
// serve the API through httptest.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
