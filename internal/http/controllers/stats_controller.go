package controllers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/http/helpers"
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
)

// StatsController maneja GET /api/stats/{namespace_id}, el dashboard y el
// dump del registro.
type StatsController struct {
	service *svc.StatsService
}

func NewStatsController(service *svc.StatsService) *StatsController {
	return &StatsController{service: service}
}

// Stats responde el resumen de un namespace.
func (c *StatsController) Stats(w http.ResponseWriter, r *http.Request) {
	namespaceID := strings.TrimSpace(chi.URLParam(r, "namespace_id"))
	resp, err := c.service.Stats(r.Context(), namespaceID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// ExportRegistry descarga el registro de un namespace como CSV. Las filas
// traen los contactos sin enmascarar, así que la ruta sólo existe dentro
// del grupo de admin.
func (c *StatsController) ExportRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	namespaceID := strings.TrimSpace(r.URL.Query().Get("namespace_id"))

	rows, err := c.service.ExportRegistry(ctx, namespaceID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="registry-`+namespaceID+`.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"namespace_id", "content_hash", "submission_id", "timestamp", "contact"})
	for _, row := range rows {
		_ = cw.Write([]string{namespaceID, row.ContentHash, row.SubmissionID, row.Timestamp, row.Contact})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.From(ctx).Warn("csv export aborted mid-stream", logger.Err(err))
	}
}

// Dashboard responde el overview global. La ruta va detrás del middleware
// de admin.
func (c *StatsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := c.service.Dashboard(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
