// Command server runs the Bloom HTTP API.
//
//	@title						Bloom API
//	@version					1.0
//	@description				Companion chat journaling with a gamified virtual room.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/docs"
	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/companion"
	"github.com/tbourn/bloom-backend/internal/config"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/genai"
	httpapi "github.com/tbourn/bloom-backend/internal/http"
	"github.com/tbourn/bloom-backend/internal/jobs"
	"github.com/tbourn/bloom-backend/internal/observability"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/services"
	"github.com/tbourn/bloom-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 15 * time.Second

func main() {
	// .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.InstallLogger(sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName,
		sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)))
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	cache := catalog.NewItemCache(cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL, func(ctx context.Context, id string) (*domain.Item, error) {
		return repo.GetItem(ctx, db, id)
	})
	shop := &services.ShopService{DB: db, Cache: cache}
	if cfg.Catalog.Seed {
		if err := shop.Seed(ctx); err != nil {
			return err
		}
	}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Model: newModel(cfg.GenAI), Cache: cache}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Jobs.Enabled {
		sched, err := jobs.New(cfg.Jobs, db, shop)
		if err != nil {
			return err
		}
		log.Info().Int("jobs", sched.Len()).Msg("scheduler started")
		g.Go(func() error { return sched.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return errors.Join(srv.Shutdown(sctx), shutdownOTel(sctx))
	})
	return g.Wait()
}

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		dsn = cfg.DB.URL
	}
	db, err := repo.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("database ready")
	return db, nil
}

// newModel returns the hosted model client, or the offline companion when
// no API key is configured.
func newModel(cfg config.GenAIConfig) genai.Streamer {
	client, err := genai.New(genai.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		if !errors.Is(err, genai.ErrNoAPIKey) {
			log.Error().Err(err).Msg("model client unavailable")
		}
		log.Warn().Msg("no model configured; using the offline companion")
		return companion.NewFallback()
	}
	log.Info().Str("model", client.Model()).Msg("model client ready")
	return client
}
