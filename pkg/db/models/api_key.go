package models

import (
	"time"

	"github.com/google/uuid"
)

// ApiKey is an opaque credential for the intake API. The raw key is shown
// exactly once at creation and never again.
type ApiKey struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	Key        string     `gorm:"column:key;not null;unique" json:"-"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"last_used_at"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName fixes the table independent of GORM pluralization rules.
func (ApiKey) TableName() string {
	return "api_keys"
}

// ValidAt reports whether the key authorizes requests at the given instant:
// active and either non-expiring or not yet expired.
func (k ApiKey) ValidAt(at time.Time) bool {
	if !k.IsActive {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(at) {
		return false
	}
	return true
}
