package files

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
)

// Repository exposes document-file metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a file repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a file record.
func (r *Repository) Create(ctx context.Context, file *models.DocumentFile) (*models.DocumentFile, error) {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

// FindByID retrieves a file record by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentFile, error) {
	var f models.DocumentFile
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByRequest returns every file owned by the request, newest first.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error) {
	var out []models.DocumentFile
	err := r.db.WithContext(ctx).
		Where("document_request_id = ?", requestID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByRequestAndType returns the request's files of one declared type.
func (r *Repository) ListByRequestAndType(ctx context.Context, requestID uuid.UUID, fileType enums.FileType) ([]models.DocumentFile, error) {
	var out []models.DocumentFile
	err := r.db.WithContext(ctx).
		Where("document_request_id = ? AND file_type = ?", requestID, fileType).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes the full record back.
func (r *Repository) Save(ctx context.Context, file *models.DocumentFile) error {
	return r.db.WithContext(ctx).Save(file).Error
}

// Delete removes a file record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DocumentFile{}).Error
}
