package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnhs-dev/registrar-backend/api/responses"
	"github.com/mnhs-dev/registrar-backend/api/validators"
	"github.com/mnhs-dev/registrar-backend/internal/requests"
	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
	"github.com/mnhs-dev/registrar-backend/pkg/enums"
	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
	"github.com/mnhs-dev/registrar-backend/pkg/pagination"
)

// RequestService is the slice of the request service the HTTP layer uses.
type RequestService interface {
	Create(ctx context.Context, in requests.Input) (*models.DocumentRequest, error)
	Update(ctx context.Context, id uuid.UUID, in requests.Input) (*models.DocumentRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RequestStatus, remarks *string) (*models.DocumentRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.DocumentRequest, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.DocumentRequest, error)
	List(ctx context.Context, filter requests.ListFilter, page pagination.Params) ([]models.DocumentRequest, pagination.Meta, error)
	GetStatistics(ctx context.Context) (*requests.Statistics, error)
}

type documentRequestPayload struct {
	LearningReferenceNumber string  `json:"learning_reference_number" validate:"required,max=20"`
	NameOfStudent           string  `json:"name_of_student" validate:"required,max=255"`
	LastSchoolyearAttended  string  `json:"last_schoolyear_attended" validate:"required,max=20"`
	Gender                  string  `json:"gender" validate:"required"`
	Grade                   string  `json:"grade" validate:"required,max=50"`
	Section                 string  `json:"section" validate:"required,max=100"`
	Major                   *string `json:"major" validate:"omitempty,max=100"`
	Adviser                 string  `json:"adviser" validate:"required,max=255"`
	ContactNumber           string  `json:"contact_number" validate:"required,max=20"`
	PersonRequestingName    string  `json:"person_requesting_name" validate:"required,max=255"`
	RequestFor              string  `json:"request_for" validate:"required"`
	SignatureURL            string  `json:"signature_url" validate:"required,url"`
}

func (p documentRequestPayload) toInput() (requests.Input, error) {
	gender, err := enums.ParseGender(strings.TrimSpace(p.Gender))
	if err != nil {
		return requests.Input{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender").
			WithDetails(map[string]string{"gender": "must be one of: male, female, other"})
	}

	requestFor, err := enums.ParseRequestFor(strings.TrimSpace(p.RequestFor))
	if err != nil {
		return requests.Input{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid request_for").
			WithDetails(map[string]string{"request_for": "unknown document kind"})
	}

	return requests.Input{
		LearningReferenceNumber: strings.TrimSpace(p.LearningReferenceNumber),
		NameOfStudent:           strings.TrimSpace(p.NameOfStudent),
		LastSchoolyearAttended:  strings.TrimSpace(p.LastSchoolyearAttended),
		Gender:                  gender,
		Grade:                   strings.TrimSpace(p.Grade),
		Section:                 strings.TrimSpace(p.Section),
		Major:                   p.Major,
		Adviser:                 strings.TrimSpace(p.Adviser),
		ContactNumber:           strings.TrimSpace(p.ContactNumber),
		PersonRequestingName:    strings.TrimSpace(p.PersonRequestingName),
		RequestFor:              requestFor,
		SignatureURL:            strings.TrimSpace(p.SignatureURL),
	}, nil
}

func requestIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document request id")
	}
	return id, nil
}

// DocumentRequestCreate handles the public intake submission.
func DocumentRequestCreate(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload documentRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// DocumentRequestList returns one filtered, paginated page of requests.
func DocumentRequestList(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter requests.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("request_type")); raw != "" {
			requestFor, err := enums.ParseRequestFor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid request_type filter"))
				return
			}
			filter.RequestFor = &requestFor
		}
		filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))

		items, meta, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":      items,
			"pagination": meta,
		})
	}
}

// DocumentRequestStatistics returns live aggregate counts.
func DocumentRequestStatistics(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GetStatistics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// DocumentRequestDetail fetches one request by surrogate key.
func DocumentRequestDetail(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// DocumentRequestDetailByRequestID fetches one request by its DOC- identifier,
// the lookup path handed to requestors on their receipt.
func DocumentRequestDetailByRequestID(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(chi.URLParam(r, "requestId"))
		if requestID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request id is required"))
			return
		}

		req, err := svc.GetByRequestID(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// DocumentRequestUpdate replaces the editable fields of a request.
func DocumentRequestUpdate(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload documentRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type statusUpdatePayload struct {
	Status  string  `json:"status" validate:"required"`
	Remarks *string `json:"remarks" validate:"omitempty,max=1000"`
}

// DocumentRequestUpdateStatus moves a request through the workflow.
func DocumentRequestUpdateStatus(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusUpdatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseRequestStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
				WithDetails(map[string]string{"status": "unknown workflow state"}))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, status, payload.Remarks)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DocumentRequestDelete removes a request and its files.
func DocumentRequestDelete(svc RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
