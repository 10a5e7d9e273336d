package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/http/helpers"
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
	httpmetrics "github.com/dropDatabas3/cryptoqr/internal/observability/metrics"
)

// VerifyController maneja POST /api/verify y POST /api/verify/export.
type VerifyController struct {
	service   *svc.VerifyService
	maxUpload int64
	now       func() time.Time
}

func NewVerifyController(service *svc.VerifyService, maxUpload int64) *VerifyController {
	return &VerifyController{service: service, maxUpload: maxUpload, now: time.Now}
}

// Verify recibe multipart/form-data con el certificado (campo o archivo
// "certificate") y el archivo a comprobar ("file"). Siempre responde 200
// con el veredicto: un certificado roto es un veredicto inválido, no un
// error HTTP.
func (c *VerifyController) Verify(w http.ResponseWriter, r *http.Request) {
	rawCert, content, ok := c.readVerifyInput(w, r)
	if !ok {
		return
	}
	verdict := c.runVerification(r, rawCert, content, "Verify")
	helpers.WriteJSON(w, http.StatusOK, verdict)
}

// Export corre la misma verificación que Verify pero responde el veredicto
// como attachment JSON con verified_at/verified_by: un comprobante portable
// que se puede archivar o reenviar sin acceso al servicio.
func (c *VerifyController) Export(w http.ResponseWriter, r *http.Request) {
	rawCert, content, ok := c.readVerifyInput(w, r)
	if !ok {
		return
	}
	verdict := c.runVerification(r, rawCert, content, "Export")

	receipt := dto.VerificationExport{
		Verdict:    verdict,
		VerifiedAt: c.now().UTC().Format(time.RFC3339),
		VerifiedBy: "cryptoqr v" + cert.Version,
	}
	body, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="verification-`+verdict.SubmissionID+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// runVerification ejecuta el servicio, cuenta la métrica y loguea el
// resultado. Compartido entre la respuesta online y el export descargable.
func (c *VerifyController) runVerification(r *http.Request, rawCert, content []byte, op string) cert.Verdict {
	ctx := r.Context()
	verdict := c.service.Verify(ctx, rawCert, content)

	switch {
	case verdict.Valid:
		httpmetrics.CountVerification("valid")
	case len(verdict.Checks) == 0:
		httpmetrics.CountVerification("malformed")
	default:
		httpmetrics.CountVerification("invalid")
	}
	logger.From(ctx).With(logger.Layer("controller"), logger.Op(op)).Info("verification completed",
		logger.NamespaceID(verdict.NamespaceID),
		logger.SubmissionID(verdict.SubmissionID),
		logger.Bool("valid", verdict.Valid),
	)
	return verdict
}

// readVerifyInput parsea el multipart y devuelve certificado y contenido.
// Si algo falta ya escribió la respuesta de error y retorna ok=false.
func (c *VerifyController) readVerifyInput(w http.ResponseWriter, r *http.Request) (rawCert, content []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUpload)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
			return nil, nil, false
		}
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("se espera multipart/form-data con \"certificate\" y \"file\""))
		return nil, nil, false
	}

	rawCert, err := c.certificateBytes(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return nil, nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("falta el archivo \"file\" a comprobar"))
		return nil, nil, false
	}
	defer file.Close()

	content, err = io.ReadAll(file)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
		return nil, nil, false
	}
	return rawCert, content, true
}

// certificateBytes acepta el certificado como valor de form o como archivo
// adjunto, en ese orden.
func (c *VerifyController) certificateBytes(r *http.Request) ([]byte, error) {
	if raw := strings.TrimSpace(r.FormValue("certificate")); raw != "" {
		return []byte(raw), nil
	}
	f, _, err := r.FormFile("certificate")
	if err != nil {
		return nil, httperrors.ErrMissingFields.WithDetail("falta el certificado (campo o archivo \"certificate\")")
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, httperrors.ErrBadRequest.WithCause(err)
	}
	return raw, nil
}
