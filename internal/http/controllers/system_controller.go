package controllers

import (
	"net/http"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	"github.com/dropDatabas3/cryptoqr/internal/http/helpers"
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
)

// SystemController maneja health, readiness, email-status y la raíz.
type SystemController struct {
	service *svc.SystemService
}

func NewSystemController(service *svc.SystemService) *SystemController {
	return &SystemController{service: service}
}

// Healthz es el liveness probe: responder ya es estar vivo.
func (c *SystemController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz chequea las dependencias externas; degradado responde 503.
func (c *SystemController) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := c.service.Health(r.Context())
	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}

// EmailStatus expone el estado del notificador de comprobantes.
func (c *SystemController) EmailStatus(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.service.EmailStatus(r.Context()))
}

// Root describe el servicio y sus endpoints.
func (c *SystemController) Root(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.RootResponse{
		Service:   "cryptoqr",
		Version:   cert.Version,
		Algorithm: "Ed25519",
		Endpoints: []string{
			"POST /api/submit",
			"POST /api/verify",
			"POST /api/verify/export",
			"GET /api/public-key",
			"GET /api/stats/{namespace_id}",
			"GET /api/dashboard",
			"GET /api/registry/export",
			"GET /api/email-status",
			"GET /healthz",
			"GET /readyz",
			"GET /metrics",
		},
	})
}
