package router

import (
	"context"
	"fmt"
	"net/http"

	assetsvc "greenledger-backend/internal/application/assets"
	creditsvc "greenledger-backend/internal/application/credits"
	docsvc "greenledger-backend/internal/application/documents"
	"greenledger-backend/internal/application/emails"
	healthsvc "greenledger-backend/internal/application/health"
	notifsvc "greenledger-backend/internal/application/notifications"
	onbsvc "greenledger-backend/internal/application/onboarding"
	orgsvc "greenledger-backend/internal/application/org"
	portsvc "greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/application/profiles"
	tenantsvc "greenledger-backend/internal/application/tenants"
	"greenledger-backend/internal/config"
	"greenledger-backend/internal/constants"
	"greenledger-backend/internal/infrastructure/database"
	"greenledger-backend/internal/infrastructure/payments"
	"greenledger-backend/internal/infrastructure/storage"
	assethandler "greenledger-backend/internal/interfaces/handlers/assets"
	credithandler "greenledger-backend/internal/interfaces/handlers/credits"
	dochandler "greenledger-backend/internal/interfaces/handlers/documents"
	healthhandler "greenledger-backend/internal/interfaces/handlers/health"
	notifhandler "greenledger-backend/internal/interfaces/handlers/notifications"
	onbhandler "greenledger-backend/internal/interfaces/handlers/onboarding"
	orghandler "greenledger-backend/internal/interfaces/handlers/org"
	payhandler "greenledger-backend/internal/interfaces/handlers/payments"
	porthandler "greenledger-backend/internal/interfaces/handlers/portfolios"
	profilehandler "greenledger-backend/internal/interfaces/handlers/profile"
	tenanthandler "greenledger-backend/internal/interfaces/handlers/tenants"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/observability"
	"greenledger-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from. Store, Payments and
// Mailer may be nil; the features behind them then degrade as documented on each service.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Rdb      *redis.Client
	Store    storage.ObjectStore
	Payments payments.IntentCreator
	Mailer   emails.Sender
	Metrics  *observability.Metrics
}

// CreateApp opens the database, Redis and the external clients named in cfg and
// returns the ready app together with the handles main must close.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	logger.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Open(context.Background(), cfg.DatabaseURL, cfg.Env)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	store, err := storage.New(storage.Config{
		Backend:     cfg.StorageBackend,
		Bucket:      cfg.StorageBucket,
		SupabaseURL: cfg.SupabaseURL,
		ServiceKey:  cfg.SupabaseServiceKey,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	d := Deps{
		Config:  cfg,
		DB:      db,
		Rdb:     rdb,
		Store:   store,
		Mailer:  &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
		Metrics: observability.New(nil),
	}
	if cfg.StripeSecretKey != "" {
		d.Payments = payments.NewStripeCreator(cfg.StripeSecretKey, nil)
	}

	app, err := New(d)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// New builds the Fiber app and registers every route.
func New(d Deps) (*fiber.App, error) {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               int(cfg.MaxUploadBytes) + 1<<20,
	})
	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	credits := &creditsvc.Service{
		DB:       d.DB,
		Payments: d.Payments,
		Mailer:   d.Mailer,
		Metrics:  d.Metrics,
		Currency: cfg.PaymentCurrency,
	}

	// Registered before the JSON middleware chain: Stripe signs the raw body.
	stripeWebhook := &payhandler.WebhookHandler{Ledger: credits, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Metrics(d.Metrics))
	app.Use(middleware.HealthMarker(d.Rdb))

	hs := &healthsvc.Service{
		Name:     "greenledger-api",
		Rdb:      d.Rdb,
		DB:       &database.Pinger{DB: d.DB},
		Optional: map[string]bool{"storage": true},
	}
	if d.Store != nil {
		hs.Storage = d.Store
	}
	hh := &healthhandler.Handlers{Service: hs, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)
	app.Get("/health/errors", hh.Errors)
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	principals := &middleware.PrincipalCache{Rdb: d.Rdb, TTL: cfg.PrincipalCacheTTL}
	authz, err := middleware.NewAuthorizer()
	if err != nil {
		return nil, err
	}
	can := authz.AuthorizePermission

	api := app.Group("/api/v1", limiter.Handler(), middleware.Authenticate(middleware.AuthConfig{
		Secret:   []byte(cfg.SupabaseJWTSecret),
		Audience: "authenticated",
		Profiles: &profiles.Service{DB: d.DB},
		Cache:    principals,
		Metrics:  d.Metrics,
	}))

	tenants := &tenanthandler.Handlers{
		Service:    &tenantsvc.Service{DB: d.DB, Mailer: d.Mailer, BaseURL: cfg.AppBaseURL},
		Principals: principals,
	}
	checkLimiter := middleware.NewRateLimiter(1, 5)
	api.Post("/invitations/public/check-token", checkLimiter.Handler(), tenants.CheckToken)

	authed := api.Group("", middleware.RequireAuth())

	onb := &onbhandler.Handlers{
		Service:    &onbsvc.Service{DB: d.DB, DemoAsset: cfg.BootstrapDemoAsset},
		Principals: principals,
	}
	authed.Post("/onboarding/bootstrap", onb.Bootstrap)

	ph := &profilehandler.Handlers{Service: &profiles.Service{DB: d.DB}}
	authed.Get("/profile", ph.GetProfile)
	authed.Patch("/profile", ph.UpdateProfile)

	oh := &orghandler.Handlers{Service: &orgsvc.Service{DB: d.DB}, Principals: principals}
	authed.Post("/orgs", oh.CreateOrg)
	authed.Post("/invitations/accept", tenants.Accept)

	ch := &credithandler.Handlers{Service: credits}
	authed.Get("/credits", ch.List)
	authed.Get("/credits/summary", ch.Summary)

	nh := &notifhandler.Handlers{Service: &notifsvc.Service{DB: d.DB}}
	authed.Get("/notifications", nh.List)
	authed.Patch("/notifications/read-all", nh.MarkAllRead)
	authed.Patch("/notifications/:id/read", nh.MarkRead)

	member := authed.Group("", middleware.RequireOrg())
	member.Get("/orgs/me", can(constants.ViewData), oh.ViewOrg)
	member.Patch("/orgs/me", can(constants.ManageOrg), oh.UpdateOrg)

	assets := &assetsvc.Service{DB: d.DB}
	pfh := &porthandler.Handlers{Service: &portsvc.Service{DB: d.DB}, Assets: assets}
	member.Get("/portfolios", can(constants.ViewData), pfh.List)
	member.Post("/portfolios", can(constants.ManagePortfolios), pfh.Create)
	member.Get("/portfolios/:id/assets", can(constants.ViewData), pfh.ListAssets)

	ah := &assethandler.Handlers{Service: assets}
	member.Post("/assets", can(constants.ManageAssets), ah.Create)
	member.Get("/assets/:id", can(constants.ViewData), ah.Get)
	member.Patch("/assets/:id", can(constants.ManageAssets), ah.Update)

	member.Get("/assets/:id/tenants", can(constants.ViewData), tenants.List)
	member.Post("/assets/:id/tenants", can(constants.AssignTenants), tenants.Assign)
	member.Patch("/invitations/:id/revoke", can(constants.AssignTenants), tenants.Revoke)

	dh := &dochandler.Handlers{Service: &docsvc.Service{
		DB:           d.DB,
		Store:        d.Store,
		Metrics:      d.Metrics,
		MaxBytes:     cfg.MaxUploadBytes,
		SignedURLTTL: cfg.SignedURLTTL,
	}}
	member.Get("/assets/:id/documents", can(constants.ViewData), dh.List)
	member.Post("/assets/:id/documents", can(constants.UploadDocuments), dh.Upload)
	member.Get("/documents/:id/url", can(constants.ViewData), dh.URL)

	member.Get("/projects", can(constants.ViewData), ch.ListProjects)
	member.Get("/projects/:id", can(constants.ViewData), ch.GetProject)
	member.Post("/credits/purchase", can(constants.PurchaseCredits), ch.Purchase)
	member.Post("/credits/use", can(constants.PurchaseCredits), ch.Use)

	return app, nil
}

// Handler exposes the app as a net/http handler for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
