package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mallrent-backend/api/routes"
	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	"github.com/angelmondragon/mallrent-backend/internal/units"
	"github.com/angelmondragon/mallrent-backend/pkg/auth/session"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/instance"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
	"github.com/angelmondragon/mallrent-backend/pkg/migrate"
	"github.com/angelmondragon/mallrent-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	exitOn(logg, "failed to create session manager", err)

	var events identity.Publisher = identity.NewBus()
	if cfg.FeatureFlags.RemoteSessionEvents {
		// publish only; the API holds no client sessions to follow
		events = identity.NewRedisBus(nil, redisClient, instance.GetID(), logg)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		Repo:           identity.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Events:         events,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	exitOn(logg, "failed to create identity service", err)

	profileRepo := profiles.NewRepository(dbClient.DB())
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Accounts: identityService,
		Profiles: profileRepo,
		Signup:   cfg.Signup,
		Logger:   logg,
	})
	exitOn(logg, "failed to create register service", err)

	unitRepo := units.NewRepository(dbClient.DB())
	contractRepo := contracts.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())
	inquiryRepo := inquiries.NewRepository(dbClient.DB())

	inquiryService, err := inquiries.NewService(inquiries.ServiceParams{Repo: inquiryRepo, Units: unitRepo, Logger: logg})
	exitOn(logg, "failed to create inquiries service", err)

	contractService, err := contracts.NewService(contracts.ServiceParams{DB: dbClient, Owners: profileRepo, Logger: logg})
	exitOn(logg, "failed to create contracts service", err)

	paymentService, err := payments.NewService(payments.ServiceParams{Repo: paymentRepo, Logger: logg})
	exitOn(logg, "failed to create payments service", err)

	registry := prometheus.NewRegistry()
	dashboardMetrics := metrics.NewDashboardMetrics(registry)

	adminDashboard, err := dashboards.NewAdminAggregator(dashboards.AdminParams{
		Units:     unitRepo,
		Contracts: contractRepo,
		Payments:  paymentRepo,
		Inquiries: inquiryRepo,
		Inbox:     inquiryService,
		Metrics:   dashboardMetrics,
		Logger:    logg,
	})
	exitOn(logg, "failed to create admin dashboard", err)

	ownerDashboard, err := dashboards.NewOwnerAggregator(dashboards.OwnerParams{
		Contracts: contractRepo,
		Payments:  paymentRepo,
		Metrics:   dashboardMetrics,
		Logger:    logg,
	})
	exitOn(logg, "failed to create owner dashboard", err)

	visitorCatalog, err := dashboards.NewVisitorAggregator(dashboards.VisitorParams{
		Units:   unitRepo,
		Metrics: dashboardMetrics,
		Logger:  logg,
	})
	exitOn(logg, "failed to create visitor catalog", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Gatherer:  prometheus.Gatherers{registry, prometheus.DefaultGatherer},
			Identity:  identityService,
			Register:  registerService,
			Profiles:  profiles.NewLoader(profileRepo, nil, logg),
			Admin:     adminDashboard,
			Inquiries: inquiryService,
			Contracts: contractService,
			Payments:  paymentService,
			Owner:     ownerDashboard,
			Visitor:   visitorCatalog,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.WithoutCancel(ctx), "api server shut down gracefully")
}

func exitOn(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
