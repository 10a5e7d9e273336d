package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/http/helpers"
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
	httpmetrics "github.com/dropDatabas3/cryptoqr/internal/observability/metrics"
)

// SubmissionController maneja POST /api/submit.
type SubmissionController struct {
	service   *svc.SubmissionService
	maxUpload int64
}

func NewSubmissionController(service *svc.SubmissionService, maxUpload int64) *SubmissionController {
	return &SubmissionController{service: service, maxUpload: maxUpload}
}

// Submit recibe multipart/form-data: archivo "file" más los campos
// namespace_id, deadline (RFC3339) y contact (opcional).
func (c *SubmissionController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Submit"))

	r.Body = http.MaxBytesReader(w, r.Body, c.maxUpload)
	defer r.Body.Close()

	// el form en memoria hasta 10MB; archivos más grandes van a disco temp
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
			return
		}
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("se espera multipart/form-data con un archivo \"file\""))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("falta el archivo \"file\""))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
		return
	}
	if len(data) == 0 {
		httperrors.WriteError(w, httperrors.ErrEmptyFile)
		return
	}

	namespaceID := strings.TrimSpace(r.FormValue("namespace_id"))
	deadline := strings.TrimSpace(r.FormValue("deadline"))
	contact := strings.TrimSpace(r.FormValue("contact"))

	cert, emailQueued, err := c.service.Submit(ctx, data, namespaceID, deadline, contact)
	if err != nil {
		var dup *svc.DuplicateError
		if errors.As(err, &dup) {
			httpmetrics.CountDuplicate(namespaceID)
			helpers.WriteJSON(w, http.StatusConflict, dto.DuplicateResponse{
				Code:     "DUPLICATE_SUBMISSION",
				Message:  "Este contenido ya fue registrado en el namespace.",
				Original: dup.Original,
			})
			return
		}
		log.Debug("submit failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	httpmetrics.CountIssued(namespaceID)
	helpers.WriteJSON(w, http.StatusCreated, dto.SubmitResponse{
		SubmissionID: cert.Payload.SubmissionID,
		NamespaceID:  cert.Payload.NamespaceID,
		ContentHash:  cert.Payload.ContentHash,
		Timestamp:    cert.Payload.Timestamp,
		Deadline:     cert.Payload.Deadline,
		Certificate:  *cert,
		EmailQueued:  emailQueued,
	})
}
