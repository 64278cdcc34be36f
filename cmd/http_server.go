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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/cash-advance-management/internal"
	"github.com/frahmantamala/cash-advance-management/internal/auth"
	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	cashadvancePostgres "github.com/frahmantamala/cash-advance-management/internal/cashadvance/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/core/audit"
	"github.com/frahmantamala/cash-advance-management/internal/core/events"
	"github.com/frahmantamala/cash-advance-management/internal/employee"
	employeePostgres "github.com/frahmantamala/cash-advance-management/internal/employee/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
	paymentPostgres "github.com/frahmantamala/cash-advance-management/internal/payment/postgres"
	"github.com/frahmantamala/cash-advance-management/internal/transport/rest"
	"github.com/frahmantamala/cash-advance-management/internal/transport/swagger"
	"github.com/frahmantamala/cash-advance-management/internal/user"
	userPostgres "github.com/frahmantamala/cash-advance-management/internal/user/postgres"
	"github.com/frahmantamala/cash-advance-management/pkg/logger"
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
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

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
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
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

func setupRoutes(deps *Dependencies) error {
	const specPath = "./api/openapi.yml"
	if err := swagger.ValidateSpec(context.Background(), specPath); err != nil {
		return err
	}

	eventBus := events.NewEventBus(deps.Logger)
	registerNotificationHandlers(eventBus, deps.Logger)

	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	userService := user.NewService(userRepo, deps.Config.Security.BCryptCost, deps.Logger)
	userHandler := user.NewHandler(userService)

	tokenGen := auth.NewJWTTokenGenerator(
		deps.Config.Security.JWTAccessSecret,
		deps.Config.Security.JWTRefreshSecret,
		deps.Config.Security.AccessTokenDuration,
		deps.Config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userDirectory{repo: userRepo}, tokenGen, deps.Logger)
	authHandler := auth.NewHandler(authService)

	employeeRepo := employeePostgres.NewEmployeeRepository(deps.GormDB)
	employeeService := employee.NewService(employeeRepo, deps.Logger)
	employeeHandler := employee.NewHandler(employeeService)

	advanceRepo := cashadvancePostgres.NewCashAdvanceRepository(deps.GormDB)
	advanceService := cashadvance.NewService(advanceRepo, employeeService, eventBus, deps.Logger)
	advanceHandler := cashadvance.NewHandler(advanceService)

	paymentRepo := paymentPostgres.NewPaymentRepository(deps.GormDB)
	paymentService := payment.NewService(paymentRepo, eventBus, deps.Logger)
	paymentHandler := payment.NewHandler(paymentService)

	auditHandler := audit.NewHandler(audit.NewRepository(deps.GormDB))

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB,
		authHandler, userHandler, employeeHandler, advanceHandler, paymentHandler, auditHandler,
		deps.Logger)

	return nil
}

// registerNotificationHandlers wires the lifecycle events to the
// notification log. Delivery to an external channel would hang off these
// same subscriptions.
func registerNotificationHandlers(bus *events.EventBus, log *slog.Logger) {
	notify := func(ctx context.Context, event events.Event) error {
		log.Info("advance lifecycle notification",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(events.EventTypeAdvanceSubmitted, notify)
	bus.Subscribe(events.EventTypeAdvanceApproved, notify)
	bus.Subscribe(events.EventTypeAdvanceRejected, notify)
	bus.Subscribe(events.EventTypeAdvancePaid, notify)
	bus.Subscribe(events.EventTypePaymentRecorded, notify)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ORM: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
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

// initGorm layers the ORM over the shared sql.DB and registers the audit
// plugin so every tracked write carries its trail entry.
func initGorm(db *sqlx.DB, log *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := gormDB.Use(audit.NewPlugin(log)); err != nil {
		return nil, fmt.Errorf("failed to register audit plugin: %w", err)
	}

	return gormDB, nil
}

// userDirectory adapts the user repository to auth.UserDirectory,
// converting the stored account into the view auth owns.
type userDirectory struct {
	repo user.Repository
}

func toAuthAccount(u *user.User) *auth.Account {
	return &auth.Account{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		AccessLevel:  u.AccessLevel,
		IsActive:     u.IsActive,
	}
}

func (d userDirectory) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	u, err := d.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return toAuthAccount(u), nil
}

func (d userDirectory) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAuthAccount(u), nil
}

func (d userDirectory) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return d.repo.RecordLogin(ctx, id, at)
}
