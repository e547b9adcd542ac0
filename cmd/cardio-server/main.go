package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cardio/cardio/internal/config"
	"github.com/cardio/cardio/internal/domain/lipidpanel"
	"github.com/cardio/cardio/internal/domain/profile"
	"github.com/cardio/cardio/internal/domain/readings"
	"github.com/cardio/cardio/internal/platform/alerts"
	"github.com/cardio/cardio/internal/platform/auth"
	"github.com/cardio/cardio/internal/platform/db"
	"github.com/cardio/cardio/internal/platform/middleware"
	"github.com/cardio/cardio/internal/platform/telemetry"
	"github.com/cardio/cardio/internal/platform/websocket"
	"github.com/cardio/cardio/internal/storage/sqlite"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cardio-server",
		Short: "Cardiovascular health tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the cardio API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsePostgres() {
				return fmt.Errorf("migrate requires DATABASE_URL; the SQLite store migrates itself on startup")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsePostgres() {
				return fmt.Errorf("migrate requires DATABASE_URL; the SQLite store migrates itself on startup")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// eventFanout routes domain events to the WebSocket hub, the alert
// manager, and the operation counters. It implements the EventSink
// interfaces of the readings, lipidpanel, and profile packages.
type eventFanout struct {
	hub     *websocket.Hub
	alerts  *alerts.Manager
	metrics *telemetry.Provider
	logger  zerolog.Logger
}

// publish marshals the payload and broadcasts it to the user's
// connections on the given topic.
func (f *eventFanout) publish(userID uuid.UUID, topic, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error().Err(err).Str("type", eventType).Msg("failed to marshal event payload")
		return
	}
	f.hub.BroadcastUser(userID, topic, websocket.Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// ReadingCreated implements readings.EventSink.
func (f *eventFanout) ReadingCreated(ctx context.Context, r readings.WithDerived) {
	f.metrics.OperationCounter("readings", "create")
	f.publish(r.UserID, websocket.TopicReadings, "reading.created", r)
}

// ReadingUrgent implements readings.EventSink. Crisis readings also go
// out to registered webhook endpoints; delivery retries can take many
// seconds, so that happens off the request path with its own deadline.
func (f *eventFanout) ReadingUrgent(ctx context.Context, r readings.WithDerived) {
	f.metrics.OperationCounter("readings", "crisis")
	f.publish(r.UserID, websocket.TopicAlerts, "reading.crisis", r)

	payload, err := json.Marshal(r)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to marshal crisis payload")
		return
	}
	event := alerts.Event{
		ID:        uuid.New(),
		Type:      alerts.EventReadingCrisis,
		UserID:    r.UserID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		for _, res := range f.alerts.Deliver(ctx, event) {
			if res.Success {
				f.metrics.OperationCounter("alerts", "delivered")
			} else {
				f.metrics.OperationCounter("alerts", "failed")
			}
		}
	}()
}

// PanelCreated implements lipidpanel.EventSink.
func (f *eventFanout) PanelCreated(ctx context.Context, p lipidpanel.WithDerived) {
	f.metrics.OperationCounter("lipids", "create")
	f.publish(p.UserID, websocket.TopicLipids, "panel.created", p)
}

// AssessmentCompleted implements profile.EventSink.
func (f *eventFanout) AssessmentCompleted(ctx context.Context, userID uuid.UUID, a profile.Assessment) {
	f.metrics.OperationCounter("risk", "assess")
	f.publish(userID, websocket.TopicRisk, "risk.assessed", a)
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode: requests are bound to the fixed dev user without authentication")
	}

	ctx := context.Background()

	// Storage. Postgres when DATABASE_URL is set, embedded SQLite otherwise.
	var (
		pool         *pgxpool.Pool
		store        *sqlite.Store
		readingsRepo readings.Repository
		panelsRepo   lipidpanel.Repository
		profilesRepo profile.Repository
	)
	if cfg.UsePostgres() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		readingsRepo = readings.NewRepoPG(pool)
		panelsRepo = lipidpanel.NewRepoPG(pool)
		profilesRepo = profile.NewRepoPG(pool)
		logger.Info().Msg("connected to postgres")
	} else {
		store, err = sqlite.NewFileStore(cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open sqlite store")
		}
		defer store.Close()
		readingsRepo = store.Readings()
		panelsRepo = store.Panels()
		profilesRepo = store.Profiles()
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")
	}

	// Telemetry
	tp := telemetry.NewProvider(telemetry.Config{
		ServiceName:    "cardio-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
	})
	defer tp.Shutdown(context.Background())

	// Real-time hub and webhook alerts
	hub := websocket.NewHub(logger)
	alertStore := alerts.NewMemoryStore()
	alertManager := alerts.NewManager(alertStore, logger,
		alerts.WithTimeout(time.Duration(cfg.AlertTimeoutSeconds)*time.Second))

	events := &eventFanout{hub: hub, alerts: alertManager, metrics: tp, logger: logger}

	// Domain services
	readingSvc := readings.NewService(readingsRepo, events, cfg.TrendWindow, cfg.TrendMinReadings)
	panelSvc := lipidpanel.NewService(panelsRepo, events)
	profileSvc := profile.NewService(profilesRepo, readingSvc, panelSvc, events)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(tp.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		devUser, err := cfg.DevUser()
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid DEV_USER_ID")
		}
		authMW = auth.DevMiddleware(devUser)
	} else {
		authMW = auth.Middleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSecret),
		})
	}

	// Health checks and metrics, outside auth
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if cfg.UsePostgres() {
		e.GET("/health/db", db.HealthHandler(pool))
	} else {
		e.GET("/health/db", sqliteHealthHandler(store))
	}
	e.GET("/metrics", tp.PrometheusHandler())

	// API group
	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RequestTimeout(30 * time.Second))
	api.Use(middleware.ETag(middleware.DefaultETagConfig()))
	api.Use(authMW)

	readings.NewHandler(readingSvc).RegisterRoutes(api)
	lipidpanel.NewHandler(panelSvc).RegisterRoutes(api)
	profile.NewHandler(profileSvc).RegisterRoutes(api)
	alerts.NewHandler(alertManager).RegisterRoutes(api.Group("/alerts/endpoints"))

	// WebSocket endpoint. Kept off the API group: the ETag and timeout
	// middleware buffer responses, which breaks the connection upgrade.
	wsGroup := e.Group("", authMW)
	websocket.NewHandler(hub).RegisterRoutes(wsGroup)

	// Periodic health gauges
	tp.StartSampler(func(rec *telemetry.HealthMetricsRecorder) {
		if pool != nil {
			stat := pool.Stat()
			rec.SetDBPoolActive(int64(stat.AcquiredConns()))
			rec.SetDBPoolIdle(int64(stat.IdleConns()))
		}
		rec.SetWSClients(int64(hub.ClientCount()))
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// sqliteHealthHandler mirrors the Postgres /health/db contract for the
// embedded store.
func sqliteHealthHandler(store *sqlite.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
		})
	}
}
