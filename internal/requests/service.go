package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/config"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
	"github.com/mnhs-dev/registrar-backend/pkg/pagination"
)

type requestRepository interface {
	Create(ctx context.Context, req *models.DocumentRequest) (*models.DocumentRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentRequest, error)
	FindByRequestID(ctx context.Context, requestID string) (*models.DocumentRequest, error)
	Save(ctx context.Context, req *models.DocumentRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.DocumentRequest, int64, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

type requestIDGenerator interface {
	GenerateRequestID(ctx context.Context) (string, error)
}

// fileManager is the slice of the file service the cascade needs.
type fileManager interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error)
	Delete(ctx context.Context, file *models.DocumentFile) error
}

// Service owns the request lifecycle: creation with a unique business ID,
// status transitions, and the explicit file-then-row delete cascade.
type Service struct {
	repo          requestRepository
	files         fileManager
	ids           requestIDGenerator
	logg          *logger.Logger
	now           func() time.Time
	cascadePolicy string
}

// NewService wires the request service. A nil clock defaults to time.Now.
func NewService(repo requestRepository, files fileManager, ids requestIDGenerator, logg *logger.Logger, now func() time.Time, cascadePolicy string) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("request repository required")
	}
	if files == nil {
		return nil, fmt.Errorf("file manager required")
	}
	if ids == nil {
		return nil, fmt.Errorf("request id generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	switch cascadePolicy {
	case config.CascadeBestEffort, config.CascadeStrict:
	default:
		return nil, fmt.Errorf("invalid cascade policy %q", cascadePolicy)
	}
	return &Service{
		repo:          repo,
		files:         files,
		ids:           ids,
		logg:          logg,
		now:           now,
		cascadePolicy: cascadePolicy,
	}, nil
}

// Input carries the caller-supplied request fields. Field presence and shape
// validation happens at the HTTP boundary; this layer owns the semantics.
type Input struct {
	LearningReferenceNumber string
	NameOfStudent           string
	LastSchoolyearAttended  string
	Gender                  enums.Gender
	Grade                   string
	Section                 string
	Major                   *string
	Adviser                 string
	ContactNumber           string
	PersonRequestingName    string
	RequestFor              enums.RequestFor
	SignatureURL            string
}

func (in Input) validate() error {
	if !in.Gender.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid gender %q", in.Gender))
	}
	if !in.RequestFor.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid request_for %q", in.RequestFor))
	}
	return nil
}

func (in Input) apply(req *models.DocumentRequest) {
	req.LearningReferenceNumber = in.LearningReferenceNumber
	req.NameOfStudent = in.NameOfStudent
	req.LastSchoolyearAttended = in.LastSchoolyearAttended
	req.Gender = in.Gender
	req.Grade = in.Grade
	req.Section = in.Section
	req.Major = in.Major
	req.Adviser = in.Adviser
	req.ContactNumber = in.ContactNumber
	req.PersonRequestingName = in.PersonRequestingName
	req.RequestFor = in.RequestFor
	req.SignatureURL = in.SignatureURL
}

// Create allocates a unique request ID and persists the request with the
// initial pending status.
func (s *Service) Create(ctx context.Context, in Input) (*models.DocumentRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	requestID, err := s.ids.GenerateRequestID(ctx)
	if err != nil {
		return nil, err
	}

	req := &models.DocumentRequest{
		ID:        uuid.New(),
		RequestID: requestID,
		Status:    enums.RequestStatusPending,
	}
	in.apply(req)

	if _, err := s.repo.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document request")
	}
	return req, nil
}

// Update replaces the caller-editable fields. The request ID and workflow
// state are immutable here; status moves only through UpdateStatus.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.DocumentRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(req)
	if err := s.repo.Save(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save document request")
	}
	return req, nil
}

// UpdateStatus moves the request to the given workflow state. processed_at is
// set to the current time if and only if the new status is completed, and
// cleared otherwise; remarks are overwritten unconditionally.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RequestStatus, remarks *string) (*models.DocumentRequest, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Status = status
	req.Remarks = remarks
	if status == enums.RequestStatusCompleted {
		processedAt := s.now()
		req.ProcessedAt = &processedAt
	} else {
		req.ProcessedAt = nil
	}

	if err := s.repo.Save(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save document request")
	}
	return req, nil
}

// Delete removes the request's files (blob + row each) and then the request
// row. Under the best_effort policy file failures are collected and logged
// but the request row still goes; under strict any file failure aborts
// before the row is touched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	owned, err := s.files.ListByRequest(ctx, req.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owned files")
	}

	var fileErrs error
	for i := range owned {
		if err := s.files.Delete(ctx, &owned[i]); err != nil {
			fileErrs = multierr.Append(fileErrs, fmt.Errorf("delete file %s: %w", owned[i].FileName, err))
		}
	}

	if fileErrs != nil {
		logCtx := s.logg.WithDocumentRequestID(ctx, req.RequestID)
		if s.cascadePolicy == config.CascadeStrict {
			s.logg.Error(logCtx, "aborting request delete, owned files failed to delete", fileErrs)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fileErrs, "cascade delete failed")
		}
		s.logg.Warn(logCtx, "proceeding past file-deletion failures: "+fileErrs.Error())
	}

	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document request")
	}
	return nil
}

// Get fetches one request by surrogate key.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.DocumentRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document request")
	}
	return req, nil
}

// GetByRequestID fetches one request by its business identifier.
func (s *Service) GetByRequestID(ctx context.Context, requestID string) (*models.DocumentRequest, error) {
	req, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document request")
	}
	return req, nil
}

// List returns one filtered page plus pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.DocumentRequest, pagination.Meta, error) {
	items, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list document requests")
	}
	return items, pagination.NewMeta(page, total), nil
}

// GetStatistics returns live aggregate counts.
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate statistics")
	}
	return stats, nil
}
