package controllers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnhs-dev/registrar-backend/api/responses"
	"github.com/mnhs-dev/registrar-backend/api/validators"
	"github.com/mnhs-dev/registrar-backend/internal/files"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
)

// FileService is the slice of the file service the HTTP layer uses.
type FileService interface {
	Upload(ctx context.Context, req *models.DocumentRequest, upload files.Upload, content io.Reader, fileType enums.FileType) (*models.DocumentFile, error)
	UploadMany(ctx context.Context, req *models.DocumentRequest, items []files.UploadItem, fileType enums.FileType) (*files.BatchResult, error)
	Replace(ctx context.Context, req *models.DocumentRequest, existing *models.DocumentFile, upload files.Upload, content io.Reader) (*models.DocumentFile, error)
	Delete(ctx context.Context, file *models.DocumentFile) error
	UpdateMetadata(ctx context.Context, file *models.DocumentFile, patch map[string]any) (*models.DocumentFile, error)
	TemporaryURL(ctx context.Context, file *models.DocumentFile, ttl time.Duration) (string, error)
	ExistsInStorage(ctx context.Context, file *models.DocumentFile) (bool, error)
	Get(ctx context.Context, requestID, fileID uuid.UUID) (*models.DocumentFile, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.DocumentFile, error)
	ListByRequestAndType(ctx context.Context, requestID uuid.UUID, fileType enums.FileType) ([]models.DocumentFile, error)
}

// FileControllerConfig carries the knobs the file endpoints need.
type FileControllerConfig struct {
	MaxMultipartMem int64
	TempURLExpiry   time.Duration
}

func fileIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "fileId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file id")
	}
	return id, nil
}

func fileTypeForm(r *http.Request) (enums.FileType, error) {
	raw := strings.TrimSpace(r.FormValue("file_type"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file_type is required")
	}
	fileType, err := enums.ParseFileType(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown file type %q", raw))
	}
	return fileType, nil
}

func uploadFromHeader(header *multipart.FileHeader) files.Upload {
	return files.Upload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	}
}

// FileUpload stores one multipart file against a request.
func FileUpload(requestSvc RequestService, fileSvc FileService, cfg FileControllerConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxMultipartMem); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		fileType, err := fileTypeForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required"))
			return
		}
		defer file.Close()

		row, err := fileSvc.Upload(r.Context(), req, uploadFromHeader(header), file, fileType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// FileUploadMultiple stores a batch of multipart files of one declared type.
// Partial failure returns 200 with per-file outcomes; full success returns 201.
func FileUploadMultiple(requestSvc RequestService, fileSvc FileService, cfg FileControllerConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxMultipartMem); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		fileType, err := fileTypeForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required"))
			return
		}

		items := make([]files.UploadItem, 0, len(headers))
		for _, header := range headers {
			part, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable multipart file"))
				return
			}
			content, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable multipart file"))
				return
			}
			items = append(items, files.UploadItem{
				Upload:  uploadFromHeader(header),
				Content: content,
			})
		}

		result, err := fileSvc.UploadMany(r.Context(), req, items, fileType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		message := fmt.Sprintf("%d files uploaded", len(result.Uploaded))
		if !result.AllSucceeded() {
			status = http.StatusOK
			message = fmt.Sprintf("%d of %d files uploaded", len(result.Uploaded), len(items))
		}
		responses.WriteSuccessMessage(w, status, result, message)
	}
}

// FileList returns the request's files with totals and a per-type breakdown.
func FileList(requestSvc RequestService, fileSvc FileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := fileSvc.ListByRequest(r.Context(), req.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		counts := map[string]int{}
		for _, row := range rows {
			counts[row.FileType.String()]++
		}

		responses.WriteSuccess(w, map[string]any{
			"files":       rows,
			"total_files": len(rows),
			"counts":      counts,
		})
	}
}

// FileListByType returns the request's files of one declared type.
func FileListByType(requestSvc RequestService, fileSvc FileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fileType, err := enums.ParseFileType(chi.URLParam(r, "fileType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown file type"))
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := fileSvc.ListByRequestAndType(r.Context(), req.ID, fileType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"files":       rows,
			"total_files": len(rows),
		})
	}
}

type fileDetailResponse struct {
	*models.DocumentFile
	ExistsInStorage bool   `json:"exists_in_storage"`
	DownloadURL     string `json:"download_url,omitempty"`
}

// FileDetail returns one file row plus its live storage state. The signed
// download URL is attached only while the blob actually exists.
func FileDetail(requestSvc RequestService, fileSvc FileService, cfg FileControllerConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fileID, err := fileIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := fileSvc.Get(r.Context(), req.ID, fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		exists, err := fileSvc.ExistsInStorage(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail := fileDetailResponse{DocumentFile: row, ExistsInStorage: exists}
		if exists {
			url, err := fileSvc.TemporaryURL(r.Context(), row, cfg.TempURLExpiry)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			detail.DownloadURL = url
		}
		responses.WriteSuccess(w, detail)
	}
}

// FileReplace swaps the stored object for a fresh upload of the same type.
func FileReplace(requestSvc RequestService, fileSvc FileService, cfg FileControllerConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fileID, err := fileIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := fileSvc.Get(r.Context(), req.ID, fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxMultipartMem); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required"))
			return
		}
		defer file.Close()

		row, err := fileSvc.Replace(r.Context(), req, existing, uploadFromHeader(header), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

type metadataPatchPayload struct {
	Metadata map[string]any `json:"metadata" validate:"required"`
}

// FileMetadataUpdate merges caller-supplied keys into the file's metadata.
func FileMetadataUpdate(requestSvc RequestService, fileSvc FileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fileID, err := fileIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload metadataPatchPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := fileSvc.Get(r.Context(), req.ID, fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := fileSvc.UpdateMetadata(r.Context(), row, payload.Metadata)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// FileDelete removes one file (blob first, then row).
func FileDelete(requestSvc RequestService, fileSvc FileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fileID, err := fileIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := requestSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := fileSvc.Get(r.Context(), req.ID, fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := fileSvc.Delete(r.Context(), row); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
