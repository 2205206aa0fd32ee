package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"mars_poster/internal/adapters/chrome"
	server "mars_poster/internal/adapters/http_server"
	"mars_poster/internal/adapters/imagefetch"
	"mars_poster/internal/adapters/memory"
	"mars_poster/internal/adapters/observability"
	redisad "mars_poster/internal/adapters/redis"
	"mars_poster/internal/app"
	"mars_poster/internal/assets"
	"mars_poster/internal/domain"
	"mars_poster/internal/raster"
	"mars_poster/internal/shared"
	mysqlrepo "mars_poster/internal/storage/mysql"
	"mars_poster/internal/upload"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// optional backing services; a nil port disables the feature
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; export cache disabled")
			_ = rc.Close()
		} else {
			defer rc.Close()
			cache = rc
			log.Info().Msg("redis connection ok")
		}
	}

	var history domain.ExportLog
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connect failed")
		}
		defer db.Close()
		repo := mysqlrepo.New(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("mysql migrate failed")
		}
		history = repo
		log.Info().Msg("database connection ok")
	}

	static := assets.New(cfg.AssetsDir)

	var rz domain.Rasterizer
	switch cfg.Rasterizer {
	case "chrome":
		c := chrome.New(cfg.ChromeURL, static.DataURL)
		defer c.Close()
		rz = c
	default:
		rz = raster.NewNative(static)
	}
	log.Info().Str("rasterizer", rz.Name()).Msg("rasterizer selected")

	// deps
	sessions := memory.NewSessionStore(cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	decoder := upload.New(cfg.UploadMaxBytes)
	fetcher := imagefetch.New(cfg.FetchRPS, cfg.UploadMaxBytes, cfg.FetchAllowPrivate)

	editor := app.NewEditorService(sessions, fetcher, decoder)
	preview := app.NewPreviewService(sessions, nil)
	exports := app.NewExportService(sessions, rz, cache, history, cfg.ExportWorkers, cfg.CacheTTL, cfg.DefaultScale)

	// http
	srv := server.New(server.Options{CORSOrigins: cfg.CORSOrigins, Timeout: 60 * time.Second})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.Mount("/images/*", static.Handler())
	srv.Mount("/logo.png", static.Handler())
	srv.MountHandlers(&server.Handlers{
		Editor:    editor,
		Preview:   preview,
		Export:    exports,
		Uploads:   decoder,
		ExportRPS: cfg.ExportRPS,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
