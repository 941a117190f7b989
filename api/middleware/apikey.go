package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mnhs-dev/registrar-backend/api/responses"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
)

const (
	apiKeyHeader = "X-API-Key"
	bearerPrefix = "Bearer "
)

type keyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error)
}

// APIKeyAuth validates the caller's key and seeds the request context with
// the key record. The key is read from X-API-Key first, then Authorization;
// the Bearer prefix strip is case-sensitive on purpose.
func APIKeyAuth(auth keyAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractAPIKey(r)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "API key is required"))
				return
			}

			key, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAPIKey(r.Context(), key)
			if logg != nil {
				ctx = logg.WithAPIKeyName(ctx, key.Name)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if raw := strings.TrimSpace(r.Header.Get(apiKeyHeader)); raw != "" {
		return raw
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimSpace(raw[len(bearerPrefix):])
	}
	return raw
}
