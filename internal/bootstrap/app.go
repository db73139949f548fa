package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"

	"coa-backend/coa/assets"
	"coa-backend/coa/render"
	"coa-backend/internal/accounts"
	googleauth "coa-backend/internal/auth"
	"coa-backend/internal/certificates"
	"coa-backend/internal/extraction"
	"coa-backend/internal/llm"
	openai "coa-backend/internal/llm/openai"
	"coa-backend/internal/llm/vertex"
	"coa-backend/internal/profiles"
	"coa-backend/internal/reviews"
	"coa-backend/internal/services/health"
	"coa-backend/internal/shared/config"
	"coa-backend/internal/shared/metrics"
	"coa-backend/internal/shared/server"
	"coa-backend/internal/shared/storage/db"
	"coa-backend/internal/shared/storage/docstore"
	"coa-backend/internal/shared/storage/object"
	gcsstore "coa-backend/internal/shared/storage/object/gcs"
	localstore "coa-backend/internal/shared/storage/object/local"
	s3store "coa-backend/internal/shared/storage/object/s3"
	"coa-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Firestore *firestore.Client
	Store     object.ObjectStore
	LLM       llm.Extractor

	Accounts     *accounts.Service
	Profiles     *profiles.Service
	Extraction   *extraction.Service
	Certificates *certificates.Service
	Reviews      *reviews.Service

	closers []io.Closer
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	if c, ok := store.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	if cfg.ProfileStore == "firestore" {
		client, err := docstore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Firestore = client
		app.closers = append(app.closers, client)
	}

	app.LLM = buildLLM(ctx, cfg)
	if c, ok := app.LLM.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	buildServices(app)
	return app, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	a.closers = nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) || cfg.ProfileStore == "firestore" {
			log.Printf("bootstrap: DATABASE_URL empty; using %s repositories", cfg.ProfileStore)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if version, err := db.SchemaVersion(ctx, sqlDB); err == nil {
		telemetry.Info("db.migrated", map[string]any{"version": version})
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "gcs":
		return gcsstore.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLLM never fails the boot: a misconfigured provider leaves extraction
// answering 503 while rendering keeps working.
func buildLLM(ctx context.Context, cfg config.Config) llm.Extractor {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			log.Printf("bootstrap: openai disabled: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	case "vertex":
		client, err := vertex.NewClient(ctx, cfg.VertexProjectID, cfg.VertexRegion, cfg.LLMModel)
		if err != nil {
			log.Printf("bootstrap: vertex disabled: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	default:
		return llm.PlaceholderClient{}
	}
}

func buildServices(app *App) {
	cfg := app.Config

	var (
		accountStore accounts.Store
		profileRepo  profiles.Repo
		certRepo     certificates.Repo
		reviewRepo   reviews.Repo
	)
	switch {
	case app.Firestore != nil:
		accountStore = accounts.NewFirestoreStore(app.Firestore)
		profileRepo = &profiles.FirestoreRepo{Client: app.Firestore}
		reviewRepo = &reviews.FirestoreRepo{Client: app.Firestore}
	case app.DB != nil && cfg.ProfileStore != "memory":
		accountStore = accounts.NewPGStore(app.DB)
		profileRepo = &profiles.PGRepo{DB: app.DB}
		reviewRepo = &reviews.PGRepo{DB: app.DB}
	default:
		accountStore = accounts.NewMemoryStore()
		profileRepo = profiles.NewMemoryRepo()
		reviewRepo = reviews.NewMemoryRepo()
	}
	if app.DB != nil {
		certRepo = &certificates.PGRepo{DB: app.DB}
	} else {
		certRepo = certificates.NewMemoryRepo()
	}

	resolver := assets.NewResolver(cfg.AssetFetchTimeout)
	resolver.OnFailure = func(kind string, err error) {
		metrics.IncAssetDegraded()
		telemetry.Warn("asset.unresolved", map[string]any{"kind": kind, "err": err})
	}
	composer := render.NewComposer(resolver, render.ComposerOptions{
		WatermarkText: cfg.FreeWatermarkText,
		OnDegraded: func(asset string, err error) {
			metrics.IncAssetDegraded()
			telemetry.Warn("asset.degraded", map[string]any{"asset": asset, "err": err})
		},
	})

	app.Accounts = accounts.NewService(accountStore, cfg.SubscriptionMonthlyCredits)
	app.Profiles = profiles.NewService(profileRepo)
	app.Extraction = extraction.NewService(app.Store, app.LLM)
	app.Certificates = certificates.NewService(certRepo, app.Store, composer, app.Profiles, app.Accounts)
	app.Reviews = reviews.NewService(reviewRepo)

	claimers := map[string]accounts.GuestClaimer{
		"certificates": certRepo,
		"profiles":     profileRepo,
	}
	google := googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, app.Accounts)
	google.ClaimGuest = func(ctx context.Context, guestUserID, userID string) (int, error) {
		res, err := accounts.ClaimGuest(ctx, claimers, guestUserID, userID)
		total := 0
		for _, n := range res.Migrated {
			total += n
		}
		return total, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		HealthService:       health.NewService(app.DB),
		GoogleAuth:          google,
		Accounts:            app.Accounts,
		AccountHandler:      accounts.NewHandler(app.Accounts, claimers),
		ProfileHandler:      profiles.NewHandler(app.Profiles),
		ExtractionHandler:   extraction.NewHandler(app.Extraction),
		CertificatesHandler: certificates.NewHandler(app.Certificates, app.Extraction),
		ReviewHandler:       reviews.NewHandler(app.Reviews),
	})
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
