package app

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/phenrril/artfolio/internal/adapters/httpserver"
	"github.com/phenrril/artfolio/internal/adapters/payments/stripe"
	"github.com/phenrril/artfolio/internal/adapters/repo/github"
	"github.com/phenrril/artfolio/internal/adapters/repo/jsonfile"
	"github.com/phenrril/artfolio/internal/adapters/repo/postgres"
	"github.com/phenrril/artfolio/internal/adapters/storage/gcs"
	"github.com/phenrril/artfolio/internal/adapters/storage/localfs"
	"github.com/phenrril/artfolio/internal/config"
	"github.com/phenrril/artfolio/internal/domain"
	"github.com/phenrril/artfolio/internal/usecase"
	"github.com/phenrril/artfolio/internal/views"
)

type App struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Tmpl      *template.Template
	Store     domain.CatalogStore
	Assets    domain.AssetSink
	Payments  domain.PaymentGateway
	CatalogUC *usecase.CatalogUC
	IngestUC  *usecase.IngestUC

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	sink, err := a.openAssets(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Assets = sink

	if cfg.StripeSecretKey != "" {
		a.Payments = stripe.NewGateway(cfg.StripeSecretKey, cfg.StripeAPIURL)
	} else {
		log.Info().Msg("STRIPE_SECRET_KEY not set; buy buttons disabled")
	}

	a.CatalogUC = &usecase.CatalogUC{Store: store, TTL: cfg.CatalogCacheTTL}
	a.IngestUC = usecase.NewIngestUC(store, sink, cfg.AdminToken)

	tmpl, err := views.Parse(cfg.IsDev())
	if err != nil {
		return nil, err
	}
	a.Tmpl = tmpl
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (domain.CatalogStore, error) {
	switch cfg.CatalogStore {
	case "", "jsonfile", "file":
		path := cfg.DataFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.SiteDir, path)
		}
		log.Info().Str("path", path).Msg("catalog store: json file")
		return jsonfile.NewCatalogRepo(path), nil
	case "github":
		repo, err := github.NewCatalogRepo(github.Options{
			Token:   cfg.GitHubToken,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Path:    cfg.GitHubPath,
			BaseURL: cfg.GitHubAPIURL,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("repo", cfg.GitHubRepo).Str("path", cfg.GitHubPath).Msg("catalog store: github")
		return repo, nil
	case "postgres":
		db, err := gorm.Open(pgdriver.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		log.Info().Msg("catalog store: postgres")
		return postgres.NewCatalogRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown CATALOG_STORE %q", cfg.CatalogStore)
	}
}

func (a *App) openAssets(ctx context.Context, cfg *config.Config) (domain.AssetSink, error) {
	switch cfg.AssetBackend {
	case "", "local":
		return localfs.New(cfg.SiteDir), nil
	case "gcs":
		s, err := gcs.New(ctx, cfg.GCSBucket, cfg.GCSCredentials, cfg.GCSPublicURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		log.Info().Str("bucket", cfg.GCSBucket).Msg("asset backend: gcs")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown ASSET_BACKEND %q", cfg.AssetBackend)
	}
}

// MigrateAndSeed prepares the postgres store and loads SEED_FILE into it
// when the table is empty. Other stores need no preparation.
func (a *App) MigrateAndSeed(ctx context.Context) error {
	repo, ok := a.Store.(*postgres.CatalogRepo)
	if !ok {
		return nil
	}
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	if a.Cfg.SeedFile == "" {
		return nil
	}
	raw, err := os.ReadFile(a.Cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	items, err := domain.DecodeCatalog(raw)
	if err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	n, err := repo.Seed(ctx, items)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int("items", n).Str("file", a.Cfg.SeedFile).Msg("catalog seeded")
	}
	return nil
}

func (a *App) HTTPHandler() http.Handler {
	opts := httpserver.Options{
		ContactEmail:  a.Cfg.ContactEmail,
		PublicBaseURL: a.Cfg.PublicBaseURL,
		UploadMemory:  a.Cfg.UploadMemory,
		MaxUpload:     a.Cfg.MaxUpload,
	}
	if _, local := a.Assets.(*localfs.Storage); local {
		opts.AssetDir = a.Cfg.SiteDir
	}
	return httpserver.New(a.Tmpl, a.CatalogUC, a.IngestUC, a.Assets, a.Payments, opts)
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
