package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	"github.com/mnhs-dev/registrar-backend/pkg/pagination"
)

// Repository exposes document-request persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a request repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a request record.
func (r *Repository) Create(ctx context.Context, req *models.DocumentRequest) (*models.DocumentRequest, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// RequestIDExists reports whether the business identifier is already taken.
func (r *Repository) RequestIDExists(ctx context.Context, requestID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID retrieves a request by surrogate key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentRequest, error) {
	var req models.DocumentRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByRequestID retrieves a request by its business identifier.
func (r *Repository) FindByRequestID(ctx context.Context, requestID string) (*models.DocumentRequest, error) {
	var req models.DocumentRequest
	if err := r.db.WithContext(ctx).First(&req, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Save writes the full record back.
func (r *Repository) Save(ctx context.Context, req *models.DocumentRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// Delete removes a request record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DocumentRequest{}).Error
}

// ListFilter narrows the request listing.
type ListFilter struct {
	Status     *enums.RequestStatus
	RequestFor *enums.RequestFor
	Search     string
}

// List returns one page of requests, newest first, plus the filtered total.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.DocumentRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentRequest{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequestFor != nil {
		query = query.Where("request_for = ?", *filter.RequestFor)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"name_of_student LIKE ? OR request_id LIKE ? OR learning_reference_number LIKE ? OR person_requesting_name LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.DocumentRequest
	err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Statistics aggregates live counts grouped by status and by requested
// document kind.
type Statistics struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByRequestFor map[string]int64 `json:"by_request_for"`
}

type groupCount struct {
	Key   string
	Count int64
}

// Statistics computes the aggregate counts with GROUP BY over the current
// row set; nothing is cached or incrementally maintained.
func (r *Repository) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByStatus:     make(map[string]int64),
		ByRequestFor: make(map[string]int64),
	}

	var byStatus []groupCount
	err := r.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Key] = row.Count
		stats.Total += row.Count
	}

	var byRequestFor []groupCount
	err = r.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Select("request_for AS key, COUNT(*) AS count").
		Group("request_for").
		Scan(&byRequestFor).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byRequestFor {
		stats.ByRequestFor[row.Key] = row.Count
	}

	return stats, nil
}
