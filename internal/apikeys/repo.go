package apikeys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
)

// Repository exposes API-key persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an API-key repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new key record.
func (r *Repository) Create(ctx context.Context, key *models.ApiKey) (*models.ApiKey, error) {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		return nil, err
	}
	return key, nil
}

// FindByKey retrieves a key record by its raw token value.
func (r *Repository) FindByKey(ctx context.Context, rawKey string) (*models.ApiKey, error) {
	var key models.ApiKey
	if err := r.db.WithContext(ctx).First(&key, "key = ?", rawKey).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// MarkUsed stamps the key's last_used_at without rewriting the full record.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

// Deactivate flips the key inactive so it stops authorizing requests.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// List returns every key record, newest first.
func (r *Repository) List(ctx context.Context) ([]models.ApiKey, error) {
	var out []models.ApiKey
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
