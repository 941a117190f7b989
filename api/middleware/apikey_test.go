package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
)

type stubAuthenticator struct {
	key  *models.ApiKey
	err  error
	seen string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error) {
	s.seen = rawKey
	if s.err != nil {
		return nil, s.err
	}
	return s.key, nil
}

func okHandler(captured **models.ApiKey) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = APIKeyFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuthRejectsMissingKey(t *testing.T) {
	handler := APIKeyAuth(&stubAuthenticator{}, nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "API key is required" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestAPIKeyAuthRejectsInvalidKey(t *testing.T) {
	auth := &stubAuthenticator{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid or expired API key")}
	handler := APIKeyAuth(auth, nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "sk-bogus")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAPIKeyAuthSeedsContext(t *testing.T) {
	key := &models.ApiKey{ID: uuid.New(), Name: "frontend", Key: "sk-valid", IsActive: true}
	auth := &stubAuthenticator{key: key}

	var captured *models.ApiKey
	handler := APIKeyAuth(auth, nil)(okHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "sk-valid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured == nil || captured.Name != "frontend" {
		t.Fatalf("expected key record in context, got %+v", captured)
	}
}

func TestExtractAPIKeyPrecedenceAndBearer(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"x-api-key wins over authorization", map[string]string{"X-API-Key": "sk-header", "Authorization": "Bearer sk-auth"}, "sk-header"},
		{"bearer prefix stripped", map[string]string{"Authorization": "Bearer sk-auth"}, "sk-auth"},
		{"lowercase bearer not stripped", map[string]string{"Authorization": "bearer sk-auth"}, "bearer sk-auth"},
		{"raw authorization accepted", map[string]string{"Authorization": "sk-raw"}, "sk-raw"},
		{"nothing", map[string]string{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			if got := extractAPIKey(req); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}
