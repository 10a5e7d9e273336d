package services

import (
	"context"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/email"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
)

// DuplicateError transporta el registro original de un duplicado 409.
type DuplicateError struct {
	Original registry.Record
}

func (e *DuplicateError) Error() string {
	return "duplicate submission: " + e.Original.SubmissionID
}

// SubmissionService emite certificados y registra submissions.
type SubmissionService struct {
	issuer   *cert.Issuer
	registry registry.Registry
	notifier *email.Notifier
}

func NewSubmissionService(d Deps) *SubmissionService {
	return &SubmissionService{issuer: d.Issuer, registry: d.Registry, notifier: d.Notifier}
}

// Submit emite el certificado y lo registra de forma atómica contra
// duplicados. Si el par (namespace, hash) ya existía devuelve
// *DuplicateError con el registro original; el certificado recién
// firmado se descarta.
func (s *SubmissionService) Submit(ctx context.Context, data []byte, namespaceID, deadline, contact string) (*cert.Certificate, bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Submit"))

	if namespaceID == "" || deadline == "" {
		return nil, false, httperrors.ErrMissingFields.WithDetail("namespace_id y deadline son requeridos")
	}
	if _, err := time.Parse(time.RFC3339, deadline); err != nil {
		return nil, false, httperrors.ErrInvalidDeadline.WithCause(err)
	}

	c, err := s.issuer.Issue(data, namespaceID, deadline, contact)
	if err != nil {
		return nil, false, httperrors.ErrInternalServerError.WithCause(err)
	}

	existing, dup, err := s.registry.CheckAndRecord(ctx, namespaceID, c.Payload.ContentHash, registry.Record{
		SubmissionID: c.Payload.SubmissionID,
		Timestamp:    c.Payload.Timestamp,
		Contact:      contact,
	})
	if err != nil {
		return nil, false, httperrors.ErrServiceUnavailable.WithCause(err)
	}
	if dup {
		log.Info("duplicate submission rejected",
			logger.NamespaceID(namespaceID),
			logger.ContentHash(c.Payload.ContentHash),
			logger.SubmissionID(existing.SubmissionID),
		)
		return nil, false, &DuplicateError{Original: existing}
	}

	log.Info("certificate issued",
		logger.NamespaceID(namespaceID),
		logger.SubmissionID(c.Payload.SubmissionID),
		logger.ContentHash(c.Payload.ContentHash),
	)

	// Notificación best-effort en background; nunca bloquea la emisión.
	queued := false
	if s.notifier != nil && contact != "" {
		queued = true
		go func() {
			_ = s.notifier.NotifySubmission(contact, deadline, c)
		}()
	}

	return c, queued, nil
}
