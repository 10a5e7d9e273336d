// Package dto define los cuerpos de request/response de la API.
package dto

import (
	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
)

// SubmitResponse es la respuesta de POST /api/submit.
type SubmitResponse struct {
	SubmissionID string           `json:"submission_id"`
	NamespaceID  string           `json:"namespace_id"`
	ContentHash  string           `json:"content_hash"`
	Timestamp    string           `json:"timestamp"`
	Deadline     string           `json:"deadline"`
	Certificate  cert.Certificate `json:"certificate"`
	EmailQueued  bool             `json:"email_queued"`
}

// DuplicateResponse es el cuerpo del 409 cuando el contenido ya fue
// registrado: incluye el registro original intacto.
type DuplicateResponse struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Original registry.Record `json:"original"`
}
