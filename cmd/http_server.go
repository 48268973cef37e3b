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

	"github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/core/events"
	"github.com/frahmantamala/giving-api/internal/donation"
	donationpg "github.com/frahmantamala/giving-api/internal/donation/postgres"
	"github.com/frahmantamala/giving-api/internal/fund"
	fundpg "github.com/frahmantamala/giving-api/internal/fund/postgres"
	"github.com/frahmantamala/giving-api/internal/gateway"
	gatewaypg "github.com/frahmantamala/giving-api/internal/gateway/postgres"
	"github.com/frahmantamala/giving-api/internal/paymentmethod"
	paymentmethodpg "github.com/frahmantamala/giving-api/internal/paymentmethod/postgres"
	"github.com/frahmantamala/giving-api/internal/stripe"
	"github.com/frahmantamala/giving-api/internal/subscription"
	subscriptionpg "github.com/frahmantamala/giving-api/internal/subscription/postgres"
	"github.com/frahmantamala/giving-api/internal/transport/rest"
	"github.com/frahmantamala/giving-api/internal/webhook"
	webhookpg "github.com/frahmantamala/giving-api/internal/webhook/postgres"
	"github.com/frahmantamala/giving-api/pkg/crypto"
	"github.com/frahmantamala/giving-api/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
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
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
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

	// gorm rides on the already-pooled pgx connection instead of opening its own.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	cipher, err := crypto.NewCipher(config.Security.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	bus := events.NewEventBus(lg)
	providerClient := stripe.NewClient(config.Giving.ProviderAPIURL, config.Giving.ProviderTimeout, lg)

	// Repositories.
	gatewayRepo := gatewaypg.NewGatewayRepository(gormDB)
	fundRepo := fundpg.NewFundRepository(gormDB)
	batchRepo := donationpg.NewBatchRepository(gormDB)
	donationRepo := donationpg.NewDonationRepository(gormDB)
	fundDonationRepo := donationpg.NewFundDonationRepository(gormDB)
	eventLogRepo := webhookpg.NewEventLogRepository(gormDB)
	subscriptionRepo := subscriptionpg.NewSubscriptionRepository(gormDB)
	subscriptionFundRepo := subscriptionpg.NewSubscriptionFundRepository(gormDB)
	customerRepo := paymentmethodpg.NewCustomerRepository(gormDB)
	paymentMethodRepo := paymentmethodpg.NewPaymentMethodRepository(gormDB)

	// Services.
	gatewayService := gateway.NewService(gatewayRepo, providerClient, cipher, config.Server.BaseURL, lg)
	fundService := fund.NewService(fundRepo, lg)
	donationService := donation.NewService(
		batchRepo, donationRepo, fundDonationRepo,
		fundService, gatewayService, providerClient, bus, lg)
	subscriptionService := subscription.NewService(
		subscriptionRepo, subscriptionFundRepo, fundService,
		gatewayService, providerClient, bus, lg)
	paymentMethodService := paymentmethod.NewService(
		paymentMethodRepo, customerRepo, gatewayService, providerClient, lg)
	verifier := webhook.NewVerifier(config.Giving.SignatureTolerance)
	webhookService := webhook.NewService(
		verifier, eventLogRepo, gatewayService,
		donationService, subscriptionService, paymentMethodService, bus, lg)

	handlers := rest.Handlers{
		Gateway:       gateway.NewHandler(gatewayService),
		Fund:          fund.NewHandler(fundService),
		Donation:      donation.NewHandler(donationService),
		Webhook:       webhook.NewHandler(webhookService),
		Subscription:  subscription.NewHandler(subscriptionService),
		PaymentMethod: paymentmethod.NewHandler(paymentMethodService),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, config.Security.TokenSecret, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
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

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
