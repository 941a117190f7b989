package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
)

type stubRepo struct {
	rows      map[uuid.UUID]*models.DocumentFile
	createErr error
	saveErr   error
	deleteErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: make(map[uuid.UUID]*models.DocumentFile)}
}

func (s *stubRepo) Create(ctx context.Context, file *models.DocumentFile) (*models.DocumentFile, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	clone := *file
	s.rows[file.ID] = &clone
	return file, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentFile, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error) {
	var out []models.DocumentFile
	for _, row := range s.rows {
		if row.DocumentRequestID == requestID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByRequestAndType(ctx context.Context, requestID uuid.UUID, fileType enums.FileType) ([]models.DocumentFile, error) {
	var out []models.DocumentFile
	for _, row := range s.rows {
		if row.DocumentRequestID == requestID && row.FileType == fileType {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubRepo) Save(ctx context.Context, file *models.DocumentFile) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *file
	s.rows[file.ID] = &clone
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.rows, id)
	return nil
}

type stubBlobs struct {
	objects    map[string][]byte
	uploadErr  error
	deleteErr  error
	existsErr  error
	signErr    error
	deletions  []string
	uploads    []string
	signedURLs []string
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{objects: make(map[string][]byte)}
}

func (s *stubBlobs) Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[object] = data
	s.uploads = append(s.uploads, object)
	return nil
}

func (s *stubBlobs) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[object]
	return ok, nil
}

func (s *stubBlobs) DeleteObject(ctx context.Context, bucket, object string) error {
	s.deletions = append(s.deletions, object)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, object)
	return nil
}

func (s *stubBlobs) PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

func (s *stubBlobs) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	url := fmt.Sprintf("https://signed.example.com/%s/%s", bucket, object)
	s.signedURLs = append(s.signedURLs, url)
	return url, nil
}

func testRequest() *models.DocumentRequest {
	return &models.DocumentRequest{
		ID:                   uuid.New(),
		RequestID:            "DOC-2025-ABCD1234",
		PersonRequestingName: "Juan Dela Cruz",
	}
}

func newTestService(t *testing.T, repo *stubRepo, blobs *stubBlobs) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	now := func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	svc, err := NewService(repo, blobs, "bucket", logg, now)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func pdfUpload(size int64) Upload {
	return Upload{OriginalName: "transcript.pdf", MimeType: "application/pdf", Size: size}
}

func TestUploadCreatesRowAfterConfirmedBlobWrite(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("content"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if !strings.Contains(row.FileName, req.RequestID) {
		t.Fatalf("storage key should contain request id, got %q", row.FileName)
	}
	if !strings.Contains(row.FileName, "transcript_of_records") {
		t.Fatalf("storage key should contain file type, got %q", row.FileName)
	}
	if !strings.HasSuffix(row.FileName, ".pdf") {
		t.Fatalf("storage key should keep the extension, got %q", row.FileName)
	}
	if row.FileSize != 1024 || row.MimeType != "application/pdf" || row.OriginalName != "transcript.pdf" {
		t.Fatalf("row fields mismatch: %+v", row)
	}
	if row.Metadata["upload_method"] != "api" || row.Metadata["file_extension"] != "pdf" {
		t.Fatalf("metadata not seeded: %#v", row.Metadata)
	}
	if len(blobs.uploads) != 1 {
		t.Fatalf("expected exactly one blob write, got %d", len(blobs.uploads))
	}
	if _, ok := repo.rows[row.ID]; !ok {
		t.Fatal("expected row persisted")
	}
}

func TestUploadValidationFailureWritesNothing(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)

	_, err := svc.Upload(context.Background(), testRequest(), Upload{
		OriginalName: "huge.pdf",
		MimeType:     "application/pdf",
		Size:         20 * 1024 * 1024,
	}, strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if details, ok := typed.Details().([]string); !ok || len(details) == 0 {
		t.Fatalf("expected collected validation messages, got %#v", typed.Details())
	}
	if len(blobs.uploads) != 0 {
		t.Fatal("validation failure must not write a blob")
	}
	if len(repo.rows) != 0 {
		t.Fatal("validation failure must not create a row")
	}
}

func TestUploadBlobFailureLeavesNoRow(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	blobs.uploadErr = errors.New("backend unavailable")
	svc := newTestService(t, repo, blobs)

	_, err := svc.Upload(context.Background(), testRequest(), pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUpload {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("blob failure must leave no metadata row")
	}
}

func TestUploadRowFailureRollsBackBlob(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New("insert failed")
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)

	_, err := svc.Upload(context.Background(), testRequest(), pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(blobs.deletions) != 1 {
		t.Fatalf("expected blob rollback, deletions=%v", blobs.deletions)
	}
	if len(blobs.objects) != 0 {
		t.Fatal("expected rolled-back blob to be gone")
	}
}

func TestUploadManyPartialSuccess(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	items := []UploadItem{
		{Upload: pdfUpload(1024), Content: []byte("ok")},
		{Upload: Upload{OriginalName: "bad.zip", MimeType: "application/zip", Size: 10}, Content: []byte("nope")},
	}

	result, err := svc.UploadMany(context.Background(), req, items, enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("UploadMany: %v", err)
	}
	if result.AllSucceeded() {
		t.Fatal("expected partial success")
	}
	if len(result.Uploaded) != 1 || len(result.Failures) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Failures[0].Index != 1 || result.Failures[0].OriginalName != "bad.zip" {
		t.Fatalf("unexpected failure entry %+v", result.Failures[0])
	}
	if len(result.Failures[0].Errors) == 0 {
		t.Fatal("failure entry should carry messages")
	}
}

func TestUploadManyRequiresFiles(t *testing.T) {
	svc := newTestService(t, newStubRepo(), newStubBlobs())
	_, err := svc.UploadMany(context.Background(), testRequest(), nil, enums.FileTypeOther)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRemovesBlobThenRow(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), row); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("expected row removed")
	}
	if len(blobs.objects) != 0 {
		t.Fatal("expected blob removed")
	}
}

func TestDeleteKeepsRowWhenBlobDeleteHardFails(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	blobs.deleteErr = errors.New("permission denied")
	err = svc.Delete(context.Background(), row)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, ok := repo.rows[row.ID]; !ok {
		t.Fatal("row must survive a hard blob-delete failure")
	}
}

func TestReplaceToleratesOldCleanupFailure(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	old, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("old"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	blobs.deleteErr = errors.New("transient")
	fresh, err := svc.Replace(context.Background(), req, old, Upload{
		OriginalName: "retake.pdf", MimeType: "application/pdf", Size: 2048,
	}, strings.NewReader("new"))
	if err != nil {
		t.Fatalf("Replace should proceed past cleanup failure: %v", err)
	}
	if fresh.FileName == old.FileName {
		t.Fatal("replacement must allocate a fresh storage key")
	}
	if fresh.FileType != old.FileType {
		t.Fatalf("replacement must keep the declared type, got %q", fresh.FileType)
	}
}

func TestReplaceRejectsInvalidUploadBeforeCleanup(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	old, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("old"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	priorDeletions := len(blobs.deletions)

	_, err = svc.Replace(context.Background(), req, old, Upload{
		OriginalName: "bad.zip", MimeType: "application/zip", Size: 10,
	}, strings.NewReader("x"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(blobs.deletions) != priorDeletions {
		t.Fatal("invalid replacement must not delete the existing blob")
	}
	if _, ok := repo.rows[old.ID]; !ok {
		t.Fatal("invalid replacement must keep the existing row")
	}
}

func TestUpdateMetadataMerges(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	updated, err := svc.UpdateMetadata(context.Background(), row, map[string]any{
		"reviewed_by":   "registrar",
		"upload_method": "manual",
	})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if updated.Metadata["reviewed_by"] != "registrar" {
		t.Fatalf("expected merged key, got %#v", updated.Metadata)
	}
	if updated.Metadata["upload_method"] != "manual" {
		t.Fatal("patch should overwrite existing keys")
	}
	if updated.Metadata["file_extension"] != "pdf" {
		t.Fatal("merge must not drop untouched keys")
	}

	if _, err := svc.UpdateMetadata(context.Background(), row, nil); err == nil {
		t.Fatal("empty patch should be rejected")
	}
}

func TestTemporaryURLRequiresExistingObject(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	url, err := svc.TemporaryURL(context.Background(), row, time.Hour)
	if err != nil {
		t.Fatalf("TemporaryURL: %v", err)
	}
	if !strings.Contains(url, row.FileName) {
		t.Fatalf("unexpected url %q", url)
	}

	delete(blobs.objects, row.FileName)
	_, err = svc.TemporaryURL(context.Background(), row, time.Hour)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for missing object, got %v", err)
	}
	if typed.Message() != "file missing from storage" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	row, err := svc.Upload(context.Background(), req, pdfUpload(1024), strings.NewReader("x"), enums.FileTypeTranscriptOfRecords)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := svc.Get(context.Background(), req.ID, row.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != row.ID {
		t.Fatal("unexpected file returned")
	}

	_, err = svc.Get(context.Background(), uuid.New(), row.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign request must see not-found, got %v", err)
	}

	_, err = svc.Get(context.Background(), req.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("missing file must be not-found, got %v", err)
	}
}

func TestRoundTripPreservesSubmittedFields(t *testing.T) {
	repo := newStubRepo()
	blobs := newStubBlobs()
	svc := newTestService(t, repo, blobs)
	req := testRequest()

	in := Upload{OriginalName: "birth-cert.png", MimeType: "image/png", Size: 2048}
	row, err := svc.Upload(context.Background(), req, in, bytes.NewReader([]byte("png-bytes")), enums.FileTypeBirthCertificate)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := svc.Get(context.Background(), req.ID, row.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OriginalName != in.OriginalName || got.MimeType != in.MimeType || got.FileSize != in.Size {
		t.Fatalf("round-trip mismatch: %+v vs %+v", got, in)
	}
}
