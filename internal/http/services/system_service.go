package services

import (
	"context"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/email"
	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
)

// SystemService responde health, email-status y la raíz del servicio.
type SystemService struct {
	registry registry.Registry
	notifier *email.Notifier
}

func NewSystemService(d Deps) *SystemService {
	return &SystemService{registry: d.Registry, notifier: d.Notifier}
}

// Health chequea los componentes con dependencia externa.
func (s *SystemService) Health(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.ComponentStatus),
		Timestamp:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.registry.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["registry"] = dto.ComponentStatus{Status: "error", Message: err.Error()}
	} else {
		resp.Components["registry"] = dto.ComponentStatus{Status: "ok"}
	}

	if st := s.notifier.StatusSnapshot(); st.Enabled {
		resp.Components["email"] = dto.ComponentStatus{Status: "ok"}
	} else {
		resp.Components["email"] = dto.ComponentStatus{Status: "disabled"}
	}

	return resp
}

// EmailStatus expone el estado del notificador.
func (s *SystemService) EmailStatus(context.Context) email.Status {
	return s.notifier.StatusSnapshot()
}
