package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	cashadvancePostgres "github.com/frahmantamala/cash-advance-management/internal/cashadvance/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/core/events"
	"github.com/frahmantamala/cash-advance-management/internal/employee"
	employeePostgres "github.com/frahmantamala/cash-advance-management/internal/employee/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
	paymentPostgres "github.com/frahmantamala/cash-advance-management/internal/payment/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/payroll"
	"github.com/frahmantamala/cash-advance-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers such as the payroll deduction worker.`,
}

var payrollWorkerCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Start the payroll deduction worker",
	Long:  `Apply scheduled salary deductions to approved cash advances with an installment plan.`,
	Run: func(cmd *cobra.Command, args []string) {
		startPayrollWorker()
	},
}

var runOnce bool

func startPayrollWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize ORM: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(log)

	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(gormDB), log)
	advanceService := cashadvance.NewService(cashadvancePostgres.NewCashAdvanceRepository(gormDB), employeeService, eventBus, log)
	paymentService := payment.NewService(paymentPostgres.NewPaymentRepository(gormDB), eventBus, log)

	worker := payroll.NewWorker(
		advanceService,
		paymentService,
		config.Payroll.DeductionInterval,
		config.Payroll.BatchSize,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if runOnce {
		worker.RunOnce(ctx)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received signal, stopping payroll worker", "signal", sig)
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Error("payroll worker stopped with error", "error", err)
		os.Exit(1)
	}
}

func init() {
	payrollWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single deduction pass and exit")

	workerCmd.AddCommand(payrollWorkerCmd)
}
