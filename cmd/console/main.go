// Command console signs a user in against the local database and prints the
// dashboard their role lands on.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/authz"
	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	"github.com/angelmondragon/mallrent-backend/internal/session"
	"github.com/angelmondragon/mallrent-backend/internal/units"
	authsession "github.com/angelmondragon/mallrent-backend/pkg/auth/session"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/instance"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/redis"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: console -email <email> -password <password>")
		os.Exit(2)
	}

	logg := logger.New(logger.Options{ServiceName: "console"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "console",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer redisClient.Close()

	sessionManager, err := authsession.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	bus := identity.NewBus()
	var events identity.Publisher = bus
	if cfg.FeatureFlags.RemoteSessionEvents {
		remote := identity.NewRedisBus(bus, redisClient, instance.GetID(), logg)
		go func() {
			if err := remote.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				logg.Error(ctx, "session event listener stopped", err)
			}
		}()
		events = remote
	}
	provider, err := identity.NewService(identity.ServiceParams{
		Repo:           identity.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Events:         events,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(logg, "identity service", err)

	client := identity.NewClient(provider, bus, nil)
	defer client.Close()

	profileRepo := profiles.NewRepository(dbClient.DB())
	registrar, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Accounts: provider,
		Profiles: profileRepo,
		Signup:   cfg.Signup,
		Logger:   logg,
	})
	requireResource(logg, "register service", err)

	store, err := session.NewStore(session.StoreParams{
		Client:    client,
		Loader:    profiles.NewLoader(profileRepo, nil, logg),
		Registrar: registrar,
		Logger:    logg,
	})
	requireResource(logg, "session store", err)
	defer store.Close()

	resolved := make(chan session.State, 1)
	unsubscribe := store.OnChange(func(st session.State) {
		if st.Principal == nil && st.Err == nil {
			return
		}
		select {
		case resolved <- st:
		default:
		}
	})
	defer unsubscribe()

	requireResource(logg, "session store start", store.Start(ctx))
	if err := store.SignIn(ctx, *email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "sign-in failed: %v\n", err)
		os.Exit(1)
	}

	var state session.State
	select {
	case state = <-resolved:
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "timed out resolving profile")
		os.Exit(1)
	}
	defer func() {
		if err := store.SignOut(context.WithoutCancel(ctx)); err != nil {
			logg.Warn(ctx, "console.sign_out_failed")
		}
	}()

	if state.Err != nil {
		fmt.Fprintf(os.Stderr, "profile unavailable: %v\n", state.Err)
		return
	}

	out, err := render(ctx, logg, dbClient, state)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard failed: %v\n", err)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
	}
}

func render(ctx context.Context, logg *logger.Logger, dbClient *db.Client, state session.State) (any, error) {
	gdb := dbClient.DB()
	unitRepo := units.NewRepository(gdb)
	contractRepo := contracts.NewRepository(gdb)
	paymentRepo := payments.NewRepository(gdb)

	switch state.View {
	case authz.ViewAdmin:
		inquiryRepo := inquiries.NewRepository(gdb)
		inbox, err := inquiries.NewService(inquiries.ServiceParams{Repo: inquiryRepo, Units: unitRepo, Logger: logg})
		if err != nil {
			return nil, err
		}
		agg, err := dashboards.NewAdminAggregator(dashboards.AdminParams{
			Units:     unitRepo,
			Contracts: contractRepo,
			Payments:  paymentRepo,
			Inquiries: inquiryRepo,
			Inbox:     inbox,
			Logger:    logg,
		})
		if err != nil {
			return nil, err
		}
		return agg.Overview(ctx)
	case authz.ViewOwner:
		agg, err := dashboards.NewOwnerAggregator(dashboards.OwnerParams{Contracts: contractRepo, Payments: paymentRepo, Logger: logg})
		if err != nil {
			return nil, err
		}
		return agg.Dashboard(ctx, state.Profile.ID)
	case authz.ViewVisitor:
		agg, err := dashboards.NewVisitorAggregator(dashboards.VisitorParams{Units: unitRepo, Logger: logg})
		if err != nil {
			return nil, err
		}
		return agg.Catalog(ctx)
	default:
		return map[string]any{
			"vista":  state.View,
			"rol":    state.Profile.RoleName,
			"estado": "sin permisos para este rol",
		}, nil
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
