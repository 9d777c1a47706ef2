package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/job-scheduling/internal/api/handler"
	"github.com/cuongbtq/job-scheduling/internal/api/router"
	"github.com/cuongbtq/job-scheduling/internal/calendar"
	"github.com/cuongbtq/job-scheduling/internal/config"
	"github.com/cuongbtq/job-scheduling/internal/metrics"
	"github.com/cuongbtq/job-scheduling/internal/service"
	"github.com/cuongbtq/job-scheduling/internal/storage"
	"github.com/cuongbtq/job-scheduling/shared/database"
	"github.com/cuongbtq/job-scheduling/shared/logger"
	"github.com/cuongbtq/job-scheduling/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("calendar_mode", cfg.Calendar.Mode),
	)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	dbClient, err := initDatabase(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	store := storage.NewStorage(dbClient, appLogger.Logger)
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(context.Background()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	m := metrics.New()

	cal, err := initCalendarSyncer(cfg, store, m, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize calendar sync: %w", err)
	}

	jobService := service.NewJobService(store, cal.syncer, appLogger.Logger,
		service.WithMetrics(m),
		service.WithLocation(loc),
		service.WithSyncDispatchTimeout(cfg.Calendar.DispatchTimeout),
	)

	health := []router.HealthChecker{dbClient}
	if cal.health != nil {
		health = append(health, cal.health)
	}
	r := initRouter(cfg.App.Environment, appLogger.Logger, jobService, store, m, health)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down",
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		_ = cal.close(context.Background())
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	// background syncs started by the last requests still write to the database
	if err := cal.close(ctx); err != nil {
		appLogger.Warn("Calendar syncs still running at shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initDatabase initializes the Entity Store connection
func initDatabase(cfg *config.DatabaseConfig, logger *slog.Logger) (*database.Client, error) {
	dbConfig := &database.Config{
		Driver:          cfg.Driver,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return database.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

type calendarSync struct {
	syncer service.CalendarSyncer
	// close waits for or releases whatever the syncer holds
	close func(context.Context) error
	// health is set when the syncer needs a broker connection
	health router.HealthChecker
}

// initCalendarSyncer picks the calendar syncer for the configured mode
func initCalendarSyncer(cfg *config.Config, store *storage.Storage, m *metrics.Metrics, logger *slog.Logger) (*calendarSync, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.Calendar.Mode {
	case config.CalendarModeInline:
		client, err := calendar.NewClientFromFiles(context.Background(), cfg.Calendar.ClientSecretFile, cfg.Calendar.TokenFile, logger)
		if errors.Is(err, calendar.ErrNoCredentials) {
			return nil, fmt.Errorf("%w: run calendar-auth to authorize the calendar first", err)
		}
		if err != nil {
			return nil, err
		}

		adapter := calendar.NewAdapter(client, adapterConfig(&cfg.Calendar), logger)
		runner := calendar.NewRunner(store, adapter, m, logger)
		bg := calendar.NewBackground(runner, syncTimeout(&cfg.Calendar), logger)
		return &calendarSync{syncer: bg, close: bg.Close}, nil

	case config.CalendarModeQueue:
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			return nil, err
		}
		return &calendarSync{
			syncer: calendar.NewQueueDispatcher(rabbitClient, m, logger),
			close:  func(context.Context) error { return rabbitClient.Close() },
			health: rabbitClient,
		}, nil

	default:
		return &calendarSync{syncer: calendar.Noop{}, close: noClose}, nil
	}
}

func adapterConfig(cfg *config.CalendarConfig) calendar.AdapterConfig {
	return calendar.AdapterConfig{
		CalendarID: cfg.CalendarID,
		Events: calendar.EventSettings{
			IDPrefix:        cfg.EventIDPrefix,
			Location:        cfg.Location,
			TimeZone:        cfg.TimeZone,
			ReminderMinutes: cfg.ReminderMinutes,
		},
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		RequestTimeout: cfg.RequestTimeout,
	}
}

// syncTimeout bounds one background sync: two events, each with every
// attempt timing out and the longest backoff in between
func syncTimeout(cfg *config.CalendarConfig) time.Duration {
	return 2 * time.Duration(cfg.MaxAttempts) * (cfg.RequestTimeout + cfg.MaxBackoff)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, jobs *service.JobService, store *storage.Storage, m *metrics.Metrics, health []router.HealthChecker) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	deps := &handler.Dependencies{
		Logger:   logger,
		Jobs:     jobs,
		Registry: store,
	}

	return router.SetupRouter(deps, router.Options{Metrics: m, Health: health})
}
