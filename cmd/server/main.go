package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/api"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/config"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/connections"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/ingestion"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/logger"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/repository"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/migrations"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func slogPanicRecoverMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					reqLogger := logger.With("request_id", c.Get("requestID"))
					reqLogger.ErrorContext(c.Request().Context(), "PANIC recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

func requestLoggerMiddleware(appLogger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := uuid.New().String()
			c.Set("requestID", reqID)

			start := time.Now()

			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.Scope().SetTag("request_id", reqID)
			}

			err := next(c)
			stop := time.Now()

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			appLogger.InfoContext(c.Request().Context(), "HTTP Request",
				"request_id", reqID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency_ms", stop.Sub(start).Milliseconds(),
				"user_agent", c.Request().UserAgent(),
				"ip", c.RealIP(),
			)
			return err
		}
	}
}

func main() {
	// 1. Load application configuration FIRST.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Sentry. An empty DSN disables reporting.
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		TracesSampleRate: 1.0,
	}); err != nil {
		fmt.Printf("Sentry initialization failed: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)

	// 3. Initialize the Logger.
	logger.InitLogger(cfg.AppEnv)
	appLogger := logger.L()

	appLogger.Info("Application starting up...", "environment", cfg.AppEnv)

	// 4. Connect to the Database and apply migrations.
	dbClient, err := connections.ConnectDB(cfg.DatabaseURL, appLogger.With("component", "database_connector"))
	if err != nil {
		appLogger.Error("Failed to connect to database at startup", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrations.Up(dbClient.Pool); err != nil {
		appLogger.Error("Failed to apply database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("Database ready, migrations applied.")

	// 5. Initialize Core Application Components.
	repoLogger := appLogger.With("service", "repository")
	clientRepo := repository.NewClientRepository(dbClient.Pool, repoLogger)
	appointmentRepo := repository.NewAppointmentRepository(dbClient.Pool, repoLogger)
	purchaseRepo := repository.NewPurchaseRepository(dbClient.Pool, repoLogger)
	serviceRepo := repository.NewServiceRepository(dbClient.Pool, repoLogger)

	validator := validation.New()
	clock := clockwork.NewRealClock()

	ingestionService := ingestion.NewService(clientRepo, appointmentRepo, purchaseRepo, serviceRepo,
		validator, cfg.IngestionPageSize, appLogger)
	appLogger.Info("Ingestion service initialized.")

	apiLogger := appLogger.With("service", "api_handlers")
	clientHandler := api.NewClientHandler(clientRepo, ingestionService, validator, apiLogger)
	appointmentHandler := api.NewAppointmentHandler(appointmentRepo, ingestionService, validator, apiLogger)
	purchaseHandler := api.NewPurchaseHandler(purchaseRepo, ingestionService, validator, apiLogger)
	serviceHandler := api.NewServiceHandler(serviceRepo, ingestionService, validator, apiLogger)
	errorHandler := api.NewErrorHandler(clock, appLogger)

	appLogger.Info("API handlers initialized.")

	// 6. Initialize Echo.
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler.Handle

	// 7. Register Middleware.
	e.Use(slogPanicRecoverMiddleware(appLogger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Accept"},
	}))
	e.Use(requestLoggerMiddleware(appLogger))
	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
	}))

	// 8. Register Routes.
	e.GET("/health", func(c echo.Context) error {
		reqLogger := appLogger.With("request_id", c.Get("requestID"))
		if err := dbClient.Ping(); err != nil {
			reqLogger.ErrorContext(c.Request().Context(), "Database ping failed during health check", slog.Any("error", err))
			sentry.CaptureException(err)
			return c.String(http.StatusInternalServerError, "DB Not Ready")
		}
		return c.String(http.StatusOK, "OK")
	})

	apiGroup := e.Group("")
	clientHandler.RegisterRoutes(apiGroup)
	appointmentHandler.RegisterRoutes(apiGroup)
	purchaseHandler.RegisterRoutes(apiGroup)
	serviceHandler.RegisterRoutes(apiGroup)

	// 9. Start the HTTP server.
	address := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	appLogger.Info("HTTP Server starting", "port", cfg.Port)

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		appLogger.Error("HTTP Server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("HTTP Server stopped gracefully.")
}
