package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnhs-dev/registrar-backend/api/controllers"
	"github.com/mnhs-dev/registrar-backend/api/middleware"
	"github.com/mnhs-dev/registrar-backend/pkg/config"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
	"github.com/mnhs-dev/registrar-backend/pkg/metrics"
	"github.com/mnhs-dev/registrar-backend/pkg/redis"
)

// KeyAuthenticator resolves raw API keys to their records.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error)
}

// Deps bundles everything the router mounts.
type Deps struct {
	KeyService     KeyAuthenticator
	RequestService controllers.RequestService
	FileService    controllers.FileService
	Redis          *redis.Client
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer
	HealthChecks   map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	fileCfg := controllers.FileControllerConfig{
		MaxMultipartMem: int64(cfg.Files.MaxMultipartMemMB) << 20,
		TempURLExpiry:   cfg.Files.TempURLExpiry,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", controllers.HealthReady(cfg, logg, deps.HealthChecks))
			r.Get("/live", controllers.HealthLive(cfg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(deps.KeyService, logg))
			if deps.Redis != nil {
				r.Use(middleware.RateLimit(cfg.RateLimit, deps.Redis, logg))
			}

			r.Get("/file-types", controllers.FileTypes())

			r.Route("/document-requests", func(r chi.Router) {
				r.Post("/", controllers.DocumentRequestCreate(deps.RequestService, logg))
				r.Get("/", controllers.DocumentRequestList(deps.RequestService, logg))
				r.Get("/statistics", controllers.DocumentRequestStatistics(deps.RequestService, logg))
				r.Get("/request/{requestId}", controllers.DocumentRequestDetailByRequestID(deps.RequestService, logg))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", controllers.DocumentRequestDetail(deps.RequestService, logg))
					r.Put("/", controllers.DocumentRequestUpdate(deps.RequestService, logg))
					r.Patch("/status", controllers.DocumentRequestUpdateStatus(deps.RequestService, logg))
					r.Delete("/", controllers.DocumentRequestDelete(deps.RequestService, logg))

					r.Route("/files", func(r chi.Router) {
						r.Post("/upload", controllers.FileUpload(deps.RequestService, deps.FileService, fileCfg, logg))
						r.Post("/upload-multiple", controllers.FileUploadMultiple(deps.RequestService, deps.FileService, fileCfg, logg))
						r.Get("/", controllers.FileList(deps.RequestService, deps.FileService, logg))
						r.Get("/type/{fileType}", controllers.FileListByType(deps.RequestService, deps.FileService, logg))
						r.Get("/{fileId}", controllers.FileDetail(deps.RequestService, deps.FileService, fileCfg, logg))
						r.Put("/{fileId}", controllers.FileReplace(deps.RequestService, deps.FileService, fileCfg, logg))
						r.Patch("/{fileId}/metadata", controllers.FileMetadataUpdate(deps.RequestService, deps.FileService, logg))
						r.Delete("/{fileId}", controllers.FileDelete(deps.RequestService, deps.FileService, logg))
					})
				})
			})
		})
	})

	return r
}
