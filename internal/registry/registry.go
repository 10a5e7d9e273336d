// Package registry implementa la detección de submissions duplicadas:
// mapea (namespace, content_hash) al metadata del primer certificado visto.
//
// El contrato clave es check-and-record atómico: bajo N submissions
// concurrentes idénticas gana exactamente una; las demás observan el registro
// del ganador, que nunca se sobreescribe. Backends: memoria (referencia),
// redis y postgres (drop-in durables con el mismo contrato).
package registry

import (
	"context"
	"errors"
)

// Record es el metadata del primer certificado emitido para un
// (namespace, content_hash). Se crea una vez y nunca se actualiza.
type Record struct {
	SubmissionID string `json:"submission_id"`
	Timestamp    string `json:"timestamp"` // RFC3339 UTC
	Contact      string `json:"contact,omitempty"`
}

// Stats resume las submissions de un namespace.
type Stats struct {
	Total int64  `json:"total_submissions"`
	First string `json:"first_submission,omitempty"`
	Last  string `json:"last_submission,omitempty"`
}

// NamespaceCount es una entrada del overview global.
type NamespaceCount struct {
	NamespaceID string `json:"namespace_id"`
	Total       int64  `json:"submissions"`
}

// ErrClosed indica uso del registry después de Close.
var ErrClosed = errors.New("registry closed")

// Registry es el colaborador inyectable de detección de duplicados.
// Implementaciones tienen que ser seguras para uso concurrente.
type Registry interface {
	// CheckAndRecord registra rec para (namespaceID, contentHash) si es la
	// primera vez. Si ya existía devuelve duplicate=true y el registro
	// original intacto. Atómico por clave.
	CheckAndRecord(ctx context.Context, namespaceID, contentHash string, rec Record) (existing Record, duplicate bool, err error)

	// Stats devuelve el resumen de un namespace (total 0 si no existe).
	Stats(ctx context.Context, namespaceID string) (Stats, error)

	// Overview lista todos los namespaces con su cantidad de submissions.
	Overview(ctx context.Context) ([]NamespaceCount, error)

	// List devuelve todos los registros de un namespace, indexados por
	// content_hash. Para export; mapa vacío si el namespace no existe.
	List(ctx context.Context, namespaceID string) (map[string]Record, error)

	// Ping verifica que el backend esté accesible.
	Ping(ctx context.Context) error

	// Close libera recursos del backend.
	Close() error
}
