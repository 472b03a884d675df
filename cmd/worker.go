package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/reservation-management/internal/commission"
	commissionPostgres "github.com/frahmantamala/reservation-management/internal/commission/postgres"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/frahmantamala/reservation-management/internal/payout"
	payoutPostgres "github.com/frahmantamala/reservation-management/internal/payout/postgres"
	"github.com/frahmantamala/reservation-management/internal/reservation"
	reservationPostgres "github.com/frahmantamala/reservation-management/internal/reservation/postgres"
	"github.com/frahmantamala/reservation-management/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers for payout calculation and reservation cleanup.`,
}

// Payout worker command
var payoutWorkerCmd = &cobra.Command{
	Use:   "payouts",
	Short: "Run the periodic payout calculation",
	Long:  `Recalculates host payouts for the previous calendar month on a fixed interval.`,
	Run: func(cmd *cobra.Command, args []string) {
		startPayoutWorker()
	},
}

// Cleanup worker command
var cleanupWorkerCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run the periodic expired-reservation cleanup",
	Long:  `Purges reservations past their check-out that never confirmed or have fully settled.`,
	Run: func(cmd *cobra.Command, args []string) {
		startCleanupWorker()
	},
}

var runInterval time.Duration

func startPayoutWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGormDB(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	commissionService := commission.NewService(commissionPostgres.NewCommissionRepository(gormDB), lg)
	defaultRate := decimal.NewFromFloat(config.Payout.DefaultCommissionRate)
	payoutService := payout.NewService(payoutPostgres.NewPayoutRepository(gormDB), commissionService, eventBus, defaultRate, lg)

	interval := config.Payout.RunInterval
	if runInterval > 0 {
		interval = runInterval
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	lg.Info("payout worker started", "interval", interval.String())

	run := func() {
		month, year := payout.PreviousPeriod(time.Now())
		summary, err := payoutService.CalculateHostPayments(month, year)
		if err != nil {
			lg.Error("payout run failed", "error", err, "month", month, "year", year)
			return
		}
		lg.Info("payout run complete",
			"month", summary.Month,
			"year", summary.Year,
			"hosts", summary.HostsProcessed,
			"revenue", summary.TotalRevenue.String())
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			run()
		case sig := <-sigChan:
			lg.Info("received signal, shutting down payout worker", "signal", sig)
			return
		}
	}
}

func startCleanupWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGormDB(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	reservationService := reservation.NewService(reservationPostgres.NewReservationRepository(gormDB), eventBus, lg)

	interval := config.Payout.CleanupInterval
	if runInterval > 0 {
		interval = runInterval
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	lg.Info("cleanup worker started", "interval", interval.String())

	run := func() {
		deleted, err := reservationService.CleanupExpired(time.Now())
		if err != nil {
			lg.Error("cleanup run failed", "error", err)
			return
		}
		lg.Info("cleanup run complete", "deleted", deleted)
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			run()
		case sig := <-sigChan:
			lg.Info("received signal, shutting down cleanup worker", "signal", sig)
			return
		}
	}
}

func init() {
	payoutWorkerCmd.Flags().DurationVar(&runInterval, "interval", 0, "Run interval (overrides config)")
	cleanupWorkerCmd.Flags().DurationVar(&runInterval, "interval", 0, "Run interval (overrides config)")

	workerCmd.AddCommand(payoutWorkerCmd)
	workerCmd.AddCommand(cleanupWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
