package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/cron"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
	"github.com/angelmondragon/mallrent-backend/pkg/migrate"
	"github.com/angelmondragon/mallrent-backend/pkg/redis"
)

const lockName = "cron"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	contractService, err := contracts.NewService(contracts.ServiceParams{
		DB:     dbClient,
		Owners: profiles.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	exitOn(logg, "failed to create contracts service", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:   payments.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	exitOn(logg, "failed to create payments service", err)

	expiryJob, err := cron.NewContractExpiryJob(cron.ContractExpiryJobParams{Logger: logg, Contracts: contractService})
	exitOn(logg, "failed to create contract expiry job", err)

	overdueJob, err := cron.NewPaymentOverdueJob(cron.PaymentOverdueJobParams{Logger: logg, Payments: paymentService})
	exitOn(logg, "failed to create payment overdue job", err)

	lock, err := cron.NewRedisLock(redisClient, lockName, cfg.Cron.LockTTL)
	exitOn(logg, "failed to create cron lock", err)

	// contracts expire before overdue payments are marked
	registry := cron.NewRegistry(expiryJob, overdueJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	exitOn(logg, "failed to create cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"once":        *once,
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func exitOn(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
