package apikeys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/internal/identifier"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
)

const invalidKeyMessage = "Invalid or expired API key"

type keyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) (*models.ApiKey, error)
	FindByKey(ctx context.Context, rawKey string) (*models.ApiKey, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.ApiKey, error)
}

// Service owns API-key issuance and request authentication.
type Service struct {
	repo keyRepository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the key service. A nil clock defaults to time.Now.
func NewService(repo keyRepository, logg *logger.Logger, now func() time.Time) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("key repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, logg: logg, now: now}, nil
}

// Create mints a new key under the given name. The returned record carries the
// raw token; this is the only moment it is ever available in plaintext.
func (s *Service) Create(ctx context.Context, name string, expiresAt *time.Time) (*models.ApiKey, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key name is required")
	}

	raw, err := identifier.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	key := &models.ApiKey{
		ID:        uuid.New(),
		Name:      name,
		Key:       raw,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if _, err := s.repo.Create(ctx, key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist api key")
	}
	return key, nil
}

// Authenticate resolves a raw token to its key record. Unknown, inactive and
// expired keys all collapse to the same unauthorized message so the response
// leaks nothing about which keys exist. The last-used stamp is best effort; a
// failed stamp never blocks an otherwise valid request.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error) {
	key, err := s.repo.FindByKey(ctx, rawKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up api key")
	}

	if !key.ValidAt(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidKeyMessage)
	}

	if err := s.repo.MarkUsed(ctx, key.ID, s.now()); err != nil {
		s.logg.Warn(s.logg.WithAPIKeyName(ctx, key.Name), "failed to stamp last_used_at: "+err.Error())
	}
	return key, nil
}

// Deactivate retires a key by ID.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate api key")
	}
	return nil
}

// List returns every key record for operator inspection.
func (s *Service) List(ctx context.Context) ([]models.ApiKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list api keys")
	}
	return keys, nil
}
