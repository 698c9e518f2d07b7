// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/gsPatrick/garimponos-sign/internal/config"
	"github.com/gsPatrick/garimponos-sign/internal/database"
	dispatchHTTP "github.com/gsPatrick/garimponos-sign/internal/dispatch/http"
	dispatchService "github.com/gsPatrick/garimponos-sign/internal/dispatch/service"
	dispatchUsecase "github.com/gsPatrick/garimponos-sign/internal/dispatch/usecase"
	documentHTTP "github.com/gsPatrick/garimponos-sign/internal/document/http"
	documentUsecase "github.com/gsPatrick/garimponos-sign/internal/document/usecase"
	"github.com/gsPatrick/garimponos-sign/internal/http"
	"github.com/gsPatrick/garimponos-sign/internal/metrics"
	otpService "github.com/gsPatrick/garimponos-sign/internal/otp/service"
	otpUsecase "github.com/gsPatrick/garimponos-sign/internal/otp/usecase"
	signingHTTP "github.com/gsPatrick/garimponos-sign/internal/signing/http"
	signingService "github.com/gsPatrick/garimponos-sign/internal/signing/service"
	signingUsecase "github.com/gsPatrick/garimponos-sign/internal/signing/usecase"
	timelineUsecase "github.com/gsPatrick/garimponos-sign/internal/timeline/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger         *slog.Logger
	db             *sql.DB
	txManager      database.TxManager
	artifactBucket *blob.Bucket

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	documentRepo  documentUsecase.DocumentRepository
	signerRepo    documentUsecase.SignerRepository
	sessionRepo   signingUsecase.SessionRepository
	challengeRepo otpUsecase.ChallengeRepository
	eventRepo     timelineUsecase.EventRepository
	deliveryRepo  dispatchUsecase.DeliveryRepository

	// Services
	tokenService  signingService.TokenService
	artifactStore signingService.ArtifactStore
	codeService   otpService.CodeService
	notifier      dispatchService.Notifier

	// Use Cases
	documentUseCase      documentUsecase.DocumentUseCase
	sessionUseCase       signingUsecase.SessionUseCase
	signerSessionUseCase signingUsecase.SignerSessionUseCase
	otpUseCase           otpUsecase.OtpUseCase
	timelineUseCase      timelineUsecase.TimelineUseCase
	dispatchUseCase      dispatchUsecase.DispatchUseCase

	// Handlers
	documentHandler *documentHTTP.DocumentHandler
	sessionHandler  *signingHTTP.SessionHandler
	deliveryHandler *dispatchHTTP.DeliveryHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                       sync.Mutex
	loggerInit               sync.Once
	dbInit                   sync.Once
	txManagerInit            sync.Once
	artifactBucketInit       sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	documentRepoInit         sync.Once
	signerRepoInit           sync.Once
	sessionRepoInit          sync.Once
	challengeRepoInit        sync.Once
	eventRepoInit            sync.Once
	deliveryRepoInit         sync.Once
	tokenServiceInit         sync.Once
	artifactStoreInit        sync.Once
	codeServiceInit          sync.Once
	notifierInit             sync.Once
	documentUseCaseInit      sync.Once
	sessionUseCaseInit       sync.Once
	signerSessionUseCaseInit sync.Once
	otpUseCaseInit           sync.Once
	timelineUseCaseInit      sync.Once
	dispatchUseCaseInit      sync.Once
	documentHandlerInit      sync.Once
	sessionHandlerInit       sync.Once
	deliveryHandlerInit      sync.Once
	httpServerInit           sync.Once
	metricsServerInit        sync.Once
	initErrors               map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// ArtifactBucket returns the blob bucket used to store signature images.
func (c *Container) ArtifactBucket() (*blob.Bucket, error) {
	var err error
	c.artifactBucketInit.Do(func() {
		c.artifactBucket, err = c.initArtifactBucket()
		if err != nil {
			c.initErrors["artifactBucket"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["artifactBucket"]; exists {
		return nil, storedErr
	}
	return c.artifactBucket, nil
}

// MetricsProvider returns the metrics provider instance.
// It returns nil when metrics are disabled in configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics instance.
// It returns a no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
// It returns nil when metrics are disabled in configuration.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close artifact bucket if initialized
	if c.artifactBucket != nil {
		if err := c.artifactBucket.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("artifact bucket close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initArtifactBucket opens the blob bucket for the configured URL. The driver
// is selected by the URL scheme (file://, mem://, s3://, gs://, azblob://).
func (c *Container) initArtifactBucket() (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(context.Background(), c.config.ArtifactBucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact bucket: %w", err)
	}
	return bucket, nil
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics instance.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	documentHandler, err := c.DocumentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get document handler for http server: %w", err)
	}

	sessionHandler, err := c.SessionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get session handler for http server: %w", err)
	}

	deliveryHandler, err := c.DeliveryHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery handler for http server: %w", err)
	}

	var metricsMiddleware gin.HandlerFunc
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		if provider != nil {
			metricsMiddleware = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
		}
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.config, documentHandler, sessionHandler, deliveryHandler, metricsMiddleware)

	return server, nil
}

// initMetricsServer creates the metrics HTTP server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
