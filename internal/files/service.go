package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
	"github.com/mnhs-dev/registrar-backend/pkg/types"
)

type fileRepository interface {
	Create(ctx context.Context, file *models.DocumentFile) (*models.DocumentFile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentFile, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error)
	ListByRequestAndType(ctx context.Context, requestID uuid.UUID, fileType enums.FileType) ([]models.DocumentFile, error)
	Save(ctx context.Context, file *models.DocumentFile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type blobStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	ObjectExists(ctx context.Context, bucket, object string) (bool, error)
	DeleteObject(ctx context.Context, bucket, object string) error
	PublicURL(bucket, object string) string
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Service owns the upload pipeline and the blob/row consistency rules for
// document files.
type Service struct {
	repo   fileRepository
	blobs  blobStore
	bucket string
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the file service. A nil clock defaults to time.Now.
func NewService(repo fileRepository, blobs blobStore, bucket string, logg *logger.Logger, now func() time.Time) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("file repository required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, blobs: blobs, bucket: bucket, logg: logg, now: now}, nil
}

// Upload validates, writes the blob, and creates the metadata row only after
// the blob write is confirmed. A validation failure performs no blob write; a
// blob failure leaves no metadata row.
func (s *Service) Upload(ctx context.Context, req *models.DocumentRequest, upload Upload, content io.Reader, fileType enums.FileType) (*models.DocumentFile, error) {
	if req == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document request required")
	}

	if errs := Validate(upload, fileType); len(errs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file validation failed").WithDetails(errs)
	}

	key, err := BuildStorageKey(upload, fileType, req.RequestID, req.PersonRequestingName, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build storage key")
	}

	if err := s.blobs.Upload(ctx, s.bucket, key, upload.MimeType, content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, "write blob")
	}

	row := &models.DocumentFile{
		ID:                uuid.New(),
		DocumentRequestID: req.ID,
		FileType:          fileType,
		OriginalName:      upload.OriginalName,
		FileName:          key,
		FilePath:          s.blobs.PublicURL(s.bucket, key),
		MimeType:          upload.MimeType,
		FileSize:          upload.Size,
		Metadata: types.JSONMap{
			"uploaded_at":    s.now().Format(time.RFC3339),
			"upload_method":  "api",
			"file_extension": extension(upload.OriginalName),
		},
	}

	if _, err := s.repo.Create(ctx, row); err != nil {
		// Roll the confirmed blob back so a row-less blob does not linger.
		if delErr := s.blobs.DeleteObject(ctx, s.bucket, key); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "file_name", key), "orphaned blob after failed row insert")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist file row")
	}

	return row, nil
}

// UploadItem is one entry in a multi-file upload.
type UploadItem struct {
	Upload
	Content []byte
}

// UploadFailure reports why one file in a batch was rejected.
type UploadFailure struct {
	Index        int      `json:"index"`
	OriginalName string   `json:"original_name"`
	Errors       []string `json:"errors"`
}

// BatchResult carries the per-file outcome of a multi-upload; partial success
// is a first-class state, not an error.
type BatchResult struct {
	Uploaded []models.DocumentFile `json:"uploaded_files"`
	Failures []UploadFailure       `json:"errors"`
}

// AllSucceeded reports whether every file in the batch was stored.
func (b BatchResult) AllSucceeded() bool {
	return len(b.Failures) == 0
}

// UploadMany runs the upload pipeline per file, collecting failures instead
// of aborting the batch.
func (s *Service) UploadMany(ctx context.Context, req *models.DocumentRequest, items []UploadItem, fileType enums.FileType) (*BatchResult, error) {
	if req == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document request required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}

	result := &BatchResult{}
	for i, item := range items {
		row, err := s.Upload(ctx, req, item.Upload, bytes.NewReader(item.Content), fileType)
		if err != nil {
			result.Failures = append(result.Failures, UploadFailure{
				Index:        i,
				OriginalName: item.OriginalName,
				Errors:       failureMessages(err),
			})
			continue
		}
		result.Uploaded = append(result.Uploaded, *row)
	}
	return result, nil
}

// Replace swaps the stored object for a fresh upload of the same declared
// type. The old blob and row are removed best-effort: a failed cleanup is
// logged but never blocks the replacement (tolerated orphan over blocked
// replacement).
func (s *Service) Replace(ctx context.Context, req *models.DocumentRequest, existing *models.DocumentFile, upload Upload, content io.Reader) (*models.DocumentFile, error) {
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "existing file required")
	}

	if errs := Validate(upload, existing.FileType); len(errs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file validation failed").WithDetails(errs)
	}

	cleanupCtx := s.logg.WithField(ctx, "file_name", existing.FileName)
	if err := s.blobs.DeleteObject(ctx, s.bucket, existing.FileName); err != nil {
		s.logg.Warn(cleanupCtx, "old blob cleanup failed during replacement")
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		s.logg.Warn(cleanupCtx, "old row cleanup failed during replacement")
	}

	return s.Upload(ctx, req, upload, content, existing.FileType)
}

// Delete removes the blob first, then the row. A missing blob is a no-op
// success; any other blob failure aborts before the row is touched so the
// record keeps pointing at the object.
func (s *Service) Delete(ctx context.Context, file *models.DocumentFile) error {
	if file == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "file required")
	}

	if err := s.blobs.DeleteObject(ctx, s.bucket, file.FileName); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete blob")
	}
	if err := s.repo.Delete(ctx, file.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete file row")
	}
	return nil
}

// UpdateMetadata merges the patch into the file's metadata map. Keys are
// overwritten, never removed.
func (s *Service) UpdateMetadata(ctx context.Context, file *models.DocumentFile, patch map[string]any) (*models.DocumentFile, error) {
	if file == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file required")
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata patch is empty")
	}

	file.Metadata.Merge(patch)
	if err := s.repo.Save(ctx, file); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save file metadata")
	}
	return file, nil
}

// TemporaryURL signs a time-limited read URL, failing when the underlying
// object no longer exists.
func (s *Service) TemporaryURL(ctx context.Context, file *models.DocumentFile, ttl time.Duration) (string, error) {
	if file == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file required")
	}

	exists, err := s.blobs.ObjectExists(ctx, s.bucket, file.FileName)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check blob existence")
	}
	if !exists {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "file missing from storage")
	}

	url, err := s.blobs.SignedReadURL(s.bucket, file.FileName, ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url")
	}
	return url, nil
}

// ExistsInStorage reports whether the file's blob is still present.
func (s *Service) ExistsInStorage(ctx context.Context, file *models.DocumentFile) (bool, error) {
	if file == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "file required")
	}
	exists, err := s.blobs.ObjectExists(ctx, s.bucket, file.FileName)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check blob existence")
	}
	return exists, nil
}

// Get fetches one file row, owned by the given request.
func (s *Service) Get(ctx context.Context, requestID, fileID uuid.UUID) (*models.DocumentFile, error) {
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load file")
	}
	if file.DocumentRequestID != requestID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
	}
	return file, nil
}

// ListByRequest returns every file owned by the request.
func (s *Service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error) {
	out, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list files")
	}
	return out, nil
}

// ListByRequestAndType returns the request's files of one declared type.
func (s *Service) ListByRequestAndType(ctx context.Context, requestID uuid.UUID, fileType enums.FileType) ([]models.DocumentFile, error) {
	if !fileType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown file type %q", fileType))
	}
	out, err := s.repo.ListByRequestAndType(ctx, requestID, fileType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list files by type")
	}
	return out, nil
}

func failureMessages(err error) []string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().([]string); ok && len(details) > 0 {
			return details
		}
		return []string{typed.Message()}
	}
	return []string{err.Error()}
}
