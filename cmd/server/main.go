package main

import (
	"fmt"
	"net/http"

	stdlog "log"

	"github.com/rs/zerolog/log"

	"qrforge/internal/api"
	"qrforge/internal/api/handlers"
	"qrforge/internal/api/middleware"
	"qrforge/internal/engine/qr"
	"qrforge/internal/engine/render"
	"qrforge/internal/pkg/cache"
	"qrforge/internal/pkg/logger"
	"qrforge/internal/platform/config"
	"qrforge/internal/platform/database"
	"qrforge/internal/platform/storage"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		stdlog.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		stdlog.Fatalf("Failed to apply schema: %v", err)
	}

	store, err := storage.NewFileStore(cfg.Storage.BasePath)
	if err != nil {
		stdlog.Fatalf("Failed to init storage: %v", err)
	}

	var byteCache cache.ByteCache
	switch cfg.Cache.Backend {
	case "redis":
		byteCache = cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL)
	default:
		byteCache = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}

	repo := qr.NewRepository(db)
	renderer := render.NewRenderer()
	compositor := render.NewCompositor(render.StdProcessor{}, cfg.Generation.LogoFetchTimeout, log.Logger)

	service := qr.NewService(repo, renderer, compositor, store, byteCache, qr.ServiceOptions{
		ShortDomain: cfg.Generation.ShortDomain,
		TimeBudget:  cfg.Generation.TimeBudget,
	}, log.Logger)
	batch := qr.NewBatchCoordinator(service, log.Logger)

	deps := &api.Dependencies{
		QRHandler:     handlers.NewQRHandler(service, batch, store, byteCache, cfg.Generation.MaxBatchSize),
		HealthHandler: handlers.NewHealthHandler(db),
		WriteLimiter:  middleware.NewRateLimiter(cfg.Server.WriteRateLimit),
		Log:           log.Logger,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info().Str("addr", addr).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		stdlog.Fatalf("Server failed: %v", err)
	}
}
