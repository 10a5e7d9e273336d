package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cache"
	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
)

// StatsService responde stats por namespace (con cache) y el dashboard.
type StatsService struct {
	registry registry.Registry
	cache    cache.Cache
	ttl      time.Duration
}

func NewStatsService(d Deps) *StatsService {
	ttl := d.StatsTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsService{registry: d.Registry, cache: d.Cache, ttl: ttl}
}

// Stats devuelve el resumen del namespace, sirviendo desde cache si está
// fresco. Un namespace desconocido responde total 0, no 404: no filtramos
// qué namespaces existen.
func (s *StatsService) Stats(ctx context.Context, namespaceID string) (dto.StatsResponse, error) {
	if namespaceID == "" {
		return dto.StatsResponse{}, httperrors.ErrMissingFields.WithDetail("namespace_id es requerido")
	}

	cacheKey := "stats:" + namespaceID
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached dto.StatsResponse
			if json.Unmarshal(raw, &cached) == nil {
				cached.Cached = true
				return cached, nil
			}
		}
	}

	st, err := s.registry.Stats(ctx, namespaceID)
	if err != nil {
		return dto.StatsResponse{}, httperrors.ErrServiceUnavailable.WithCause(err)
	}
	resp := dto.StatsResponse{NamespaceID: namespaceID, Stats: st}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl); err != nil {
				logger.From(ctx).Debug("stats cache set failed", logger.Err(err))
			}
		}
	}
	return resp, nil
}

// Dashboard arma el overview global de namespaces.
func (s *StatsService) Dashboard(ctx context.Context) (dto.DashboardResponse, error) {
	ov, err := s.registry.Overview(ctx)
	if err != nil {
		return dto.DashboardResponse{}, httperrors.ErrServiceUnavailable.WithCause(err)
	}
	var total int64
	for _, nc := range ov {
		total += nc.Total
	}
	return dto.DashboardResponse{Namespaces: ov, Total: total}, nil
}

// RegistryRow es una fila del dump CSV del registro de un namespace.
type RegistryRow struct {
	ContentHash  string
	SubmissionID string
	Timestamp    string
	Contact      string
}

// ExportRegistry lista los registros de un namespace ordenados por
// timestamp. Incluye los emails de contacto tal cual se registraron,
// por eso la ruta vive detrás del guard de admin.
func (s *StatsService) ExportRegistry(ctx context.Context, namespaceID string) ([]RegistryRow, error) {
	if namespaceID == "" {
		return nil, httperrors.ErrMissingFields.WithDetail("namespace_id es requerido")
	}
	recs, err := s.registry.List(ctx, namespaceID)
	if err != nil {
		return nil, httperrors.ErrServiceUnavailable.WithCause(err)
	}

	rows := make([]RegistryRow, 0, len(recs))
	for hash, rec := range recs {
		rows = append(rows, RegistryRow{
			ContentHash:  hash,
			SubmissionID: rec.SubmissionID,
			Timestamp:    rec.Timestamp,
			Contact:      rec.Contact,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp < rows[j].Timestamp
		}
		return rows[i].ContentHash < rows[j].ContentHash
	})
	return rows, nil
}
