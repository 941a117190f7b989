package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mnhs-dev/registrar-backend/api/controllers"
	"github.com/mnhs-dev/registrar-backend/api/responses"
	"github.com/mnhs-dev/registrar-backend/api/routes"
	"github.com/mnhs-dev/registrar-backend/internal/apikeys"
	"github.com/mnhs-dev/registrar-backend/internal/files"
	"github.com/mnhs-dev/registrar-backend/internal/identifier"
	"github.com/mnhs-dev/registrar-backend/internal/requests"
	"github.com/mnhs-dev/registrar-backend/pkg/config"
	"github.com/mnhs-dev/registrar-backend/pkg/db"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
	"github.com/mnhs-dev/registrar-backend/pkg/metrics"
	"github.com/mnhs-dev/registrar-backend/pkg/migrate"
	"github.com/mnhs-dev/registrar-backend/pkg/redis"
	"github.com/mnhs-dev/registrar-backend/pkg/storage/gcs"
)

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

	if cfg.App.Debug {
		responses.EnableDebug()
	}

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

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, per-key rate limiting disabled")
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	requestRepo := requests.NewRepository(dbClient.DB())

	ids, err := identifier.NewGenerator(requestRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create id generator", err)
		os.Exit(1)
	}

	fileService, err := files.NewService(files.NewRepository(dbClient.DB()), gcsClient, cfg.GCS.BucketName, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create file service", err)
		os.Exit(1)
	}

	requestService, err := requests.NewService(requestRepo, fileService, ids, logg, nil, cfg.Files.CascadePolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to create request service", err)
		os.Exit(1)
	}

	keyService, err := apikeys.NewService(apikeys.NewRepository(dbClient.DB()), logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create api key service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	healthChecks := map[string]controllers.Pinger{
		"database": dbClient,
		"storage":  gcsClient,
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		KeyService:     keyService,
		RequestService: requestService,
		FileService:    fileService,
		Redis:          redisClient,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Gatherer:       registry,
		HealthChecks:   healthChecks,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
