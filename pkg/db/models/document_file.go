package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	"github.com/mnhs-dev/registrar-backend/pkg/types"
)

// DocumentFile is the metadata row for one uploaded object. FileName is the
// blob storage key; the row exists only after a confirmed blob write.
type DocumentFile struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DocumentRequestID uuid.UUID      `gorm:"column:document_request_id;type:uuid;not null;index" json:"document_request_id"`
	FileType          enums.FileType `gorm:"column:file_type;type:file_type;not null" json:"file_type"`
	OriginalName      string         `gorm:"column:original_name;not null" json:"original_name"`
	FileName          string         `gorm:"column:file_name;not null;unique" json:"file_name"`
	FilePath          string         `gorm:"column:file_path;not null" json:"file_path"`
	MimeType          string         `gorm:"column:mime_type;not null" json:"mime_type"`
	FileSize          int64          `gorm:"column:file_size;not null" json:"file_size"`
	Metadata          types.JSONMap  `gorm:"column:metadata;type:jsonb;serializer:json" json:"metadata,omitempty"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName fixes the table independent of GORM pluralization rules.
func (DocumentFile) TableName() string {
	return "document_files"
}
