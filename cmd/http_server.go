package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/reservation-management/internal"
	"github.com/frahmantamala/reservation-management/internal/commission"
	commissionPostgres "github.com/frahmantamala/reservation-management/internal/commission/postgres"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/frahmantamala/reservation-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/reservation-management/internal/notification/postgres"
	"github.com/frahmantamala/reservation-management/internal/payout"
	payoutPostgres "github.com/frahmantamala/reservation-management/internal/payout/postgres"
	"github.com/frahmantamala/reservation-management/internal/reporting"
	reportingPostgres "github.com/frahmantamala/reservation-management/internal/reporting/postgres"
	"github.com/frahmantamala/reservation-management/internal/reservation"
	reservationPostgres "github.com/frahmantamala/reservation-management/internal/reservation/postgres"
	"github.com/frahmantamala/reservation-management/internal/transport/rest"
	"github.com/frahmantamala/reservation-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	Notifier *notification.Client
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if deps.Notifier != nil {
			deps.Notifier.Shutdown()
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger

	eventBus := events.NewEventBus(lg)

	// Notification egress, driven by domain events
	notifier := notification.NewClient(notification.Config{
		BaseURL:        deps.Config.Notification.BaseURL,
		APIKey:         deps.Config.Notification.APIKey,
		SendTimeout:    deps.Config.Notification.SendTimeout,
		MaxWorkers:     deps.Config.Notification.MaxWorkers,
		JobQueueSize:   deps.Config.Notification.JobQueueSize,
		WorkerPoolSize: deps.Config.Notification.WorkerPoolSize,
	}, lg)
	deps.Notifier = notifier

	directory := notificationPostgres.NewUserDirectory(deps.GormDB)
	notification.NewEventHandler(notifier, directory, lg).RegisterHandlers(eventBus)

	// Commission policy
	commissionRepo := commissionPostgres.NewCommissionRepository(deps.GormDB)
	commissionService := commission.NewService(commissionRepo, lg)
	commissionHandler := commission.NewHandler(commissionService)

	// Reservation ledger and cancellation workflow
	reservationRepo := reservationPostgres.NewReservationRepository(deps.GormDB)
	reservationService := reservation.NewService(reservationRepo, eventBus, lg)
	reservationHandler := reservation.NewHandler(reservationService)

	// Payout calculation
	payoutRepo := payoutPostgres.NewPayoutRepository(deps.GormDB)
	defaultRate := decimal.NewFromFloat(deps.Config.Payout.DefaultCommissionRate)
	payoutService := payout.NewService(payoutRepo, commissionService, eventBus, defaultRate, lg)
	payoutHandler := payout.NewHandler(payoutService)

	// Reporting read-side over sqlx
	reportingRepo := reportingPostgres.NewReportingRepository(deps.DB)
	reportingService := reporting.NewService(reportingRepo, lg)
	reportingHandler := reporting.NewHandler(reportingService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, reservationHandler, commissionHandler, payoutHandler, reportingHandler, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGormDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		GormDB: gormDB,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGormDB wraps the shared *sql.DB with a gorm session so the ORM and the
// sqlx read-side use one connection pool.
func initGormDB(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
}
