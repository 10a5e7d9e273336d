package dto

import "github.com/dropDatabas3/cryptoqr/internal/registry"

// StatsResponse es la respuesta de GET /api/stats/{namespace_id}.
type StatsResponse struct {
	NamespaceID string `json:"namespace_id"`
	registry.Stats
	Cached bool `json:"cached"`
}

// DashboardResponse es el overview global para admins.
type DashboardResponse struct {
	Namespaces []registry.NamespaceCount `json:"namespaces"`
	Total      int64                     `json:"total_submissions"`
}
