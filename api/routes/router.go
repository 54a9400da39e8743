package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/mallrent-backend/api/controllers"
	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/authz"
	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	pkgAuth "github.com/angelmondragon/mallrent-backend/pkg/auth"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

type identityService interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*identity.Session, error)
	Verify(ctx context.Context, accessToken string) (*pkgAuth.AccessTokenClaims, error)
}

type redisStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Ping(ctx context.Context) error
}

type adminDashboard interface {
	Overview(ctx context.Context) (*dashboards.AdminOverview, error)
	Inquiries(ctx context.Context, status *enums.InquiryStatus, page pagination.Params) (*types.Page[inquiries.Item], error)
}

type inquiryService interface {
	Submit(ctx context.Context, input inquiries.SubmitInput) (*inquiries.Item, error)
	MarkContacted(ctx context.Context, id uuid.UUID) (*inquiries.Item, error)
	Close(ctx context.Context, id uuid.UUID) (*inquiries.Item, error)
}

type contractService interface {
	Create(ctx context.Context, input contracts.CreateInput) (*models.Contract, error)
	Terminate(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

type paymentService interface {
	Record(ctx context.Context, id uuid.UUID, input payments.RecordInput) (*models.Payment, error)
}

type ownerDashboard interface {
	Dashboard(ctx context.Context, ownerID uuid.UUID) (*dashboards.OwnerDashboard, error)
}

type unitCatalog interface {
	Catalog(ctx context.Context) (*dashboards.Catalog, error)
}

// Params carries everything the HTTP surface is wired to.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     redisStore
	Gatherer  prometheus.Gatherer
	Identity  identityService
	Register  auth.RegisterService
	Profiles  *profiles.Loader
	Admin     adminDashboard
	Inquiries inquiryService
	Contracts contractService
	Payments  paymentService
	Owner     ownerDashboard
	Visitor   unitCatalog
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-in",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-up",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["db"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	idempotent := middleware.Idempotency(p.Redis, logg)
	authenticated := middleware.Auth(p.Identity, logg)
	withProfile := middleware.Profile(p.Profiles, p.Identity, logg)
	can := func(c authz.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(c, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signInPolicy, p.Redis, logg)).Post("/sign-in", controllers.AuthSignIn(p.Identity, logg))
			r.With(middleware.AuthRateLimit(signUpPolicy, p.Redis, logg), idempotent).Post("/sign-up", controllers.AuthSignUp(p.Register, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Identity, logg))
			r.With(authenticated).Post("/sign-out", controllers.AuthSignOut(p.Identity, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated, withProfile)

			r.Get("/session", controllers.SessionCurrent(logg))

			r.Route("/admin", func(r chi.Router) {
				r.With(can(authz.CapViewAdminDashboard)).Get("/dashboard", controllers.AdminDashboard(p.Admin, logg))
				r.Group(func(r chi.Router) {
					r.Use(can(authz.CapManageInquiries))
					r.Get("/inquiries", controllers.AdminInquiries(p.Admin, logg))
					r.Post("/inquiries/{id}/contacted", controllers.AdminInquiryContacted(p.Inquiries, logg))
					r.Post("/inquiries/{id}/close", controllers.AdminInquiryClose(p.Inquiries, logg))
				})
				r.Group(func(r chi.Router) {
					r.Use(can(authz.CapManageContracts))
					r.With(idempotent).Post("/contracts", controllers.AdminContractCreate(p.Contracts, logg))
					r.With(idempotent).Post("/contracts/{id}/terminate", controllers.AdminContractTerminate(p.Contracts, logg))
				})
				r.With(can(authz.CapRecordPayments), idempotent).Post("/payments/{id}/record", controllers.AdminPaymentRecord(p.Payments, logg))
			})

			r.With(can(authz.CapViewOwnerDashboard)).Get("/owner/dashboard", controllers.OwnerDashboard(p.Owner, logg))

			r.Route("/visitor", func(r chi.Router) {
				r.With(can(authz.CapBrowseUnits)).Get("/units", controllers.VisitorUnits(p.Visitor, logg))
				r.With(can(authz.CapSubmitInquiry), idempotent).Post("/inquiries", controllers.VisitorInquirySubmit(p.Inquiries, logg))
			})
		})
	})

	return r
}
