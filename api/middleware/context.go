package middleware

import (
	"context"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
)

type contextKey string

const ctxAPIKey contextKey = "api_key"

// APIKeyFromContext returns the authenticated key record, or nil when the
// request came through an unauthenticated route.
func APIKeyFromContext(ctx context.Context) *models.ApiKey {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAPIKey).(*models.ApiKey); ok {
		return v
	}
	return nil
}

// WithAPIKey injects the authenticated key record into the context.
func WithAPIKey(ctx context.Context, key *models.ApiKey) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAPIKey, key)
}
