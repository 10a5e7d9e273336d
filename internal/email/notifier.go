package email

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
)

// Status es el estado observable del notificador, expuesto por el
// endpoint de diagnóstico.
type Status struct {
	Enabled   bool   `json:"enabled"`
	Sent      int64  `json:"sent"`
	Failed    int64  `json:"failed"`
	LastError string `json:"last_error,omitempty"`
	LastSent  string `json:"last_sent,omitempty"`
}

// Notifier arma y envía la confirmación de una submission. Nil-safe:
// un Notifier nil está deshabilitado y todas las operaciones son no-op.
type Notifier struct {
	sender Sender
	tmpl   *Templates

	mu       sync.Mutex
	sent     int64
	failed   int64
	lastErr  string
	lastSent time.Time
}

// NewNotifier crea el notificador; sender nil lo deja deshabilitado.
func NewNotifier(sender Sender) (*Notifier, error) {
	if sender == nil {
		return nil, nil
	}
	tmpl, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	return &Notifier{sender: sender, tmpl: tmpl}, nil
}

// NotifySubmission renderiza y envía el comprobante con el certificado
// JSON adjunto. El caller decide si lo corre en background.
func (n *Notifier) NotifySubmission(to, deadline string, c *cert.Certificate) error {
	if n == nil || to == "" {
		return nil
	}

	subject, html, text, err := n.tmpl.Render(Vars{
		NamespaceID:  c.Payload.NamespaceID,
		SubmissionID: c.Payload.SubmissionID,
		ContentHash:  c.Payload.ContentHash,
		Timestamp:    c.Payload.Timestamp,
		Deadline:     deadline,
	})
	if err != nil {
		n.record(err)
		return err
	}

	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		n.record(err)
		return err
	}

	err = n.sender.Send(Message{
		To:       to,
		Subject:  subject,
		HTMLBody: html,
		TextBody: text,
		Attachments: []Attachment{{
			Filename:    "certificate-" + c.Payload.SubmissionID + ".json",
			ContentType: "application/json",
			Data:        raw,
		}},
	})
	n.record(err)
	if err != nil {
		logger.L().Warn("submission notification failed",
			logger.SubmissionID(c.Payload.SubmissionID),
			logger.Err(err),
		)
	}
	return err
}

func (n *Notifier) record(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.failed++
		n.lastErr = err.Error()
		return
	}
	n.sent++
	n.lastSent = time.Now().UTC()
}

// StatusSnapshot retorna el estado actual; seguro sobre receiver nil.
func (n *Notifier) StatusSnapshot() Status {
	if n == nil {
		return Status{Enabled: false}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	s := Status{
		Enabled:   true,
		Sent:      n.sent,
		Failed:    n.failed,
		LastError: n.lastErr,
	}
	if !n.lastSent.IsZero() {
		s.LastSent = n.lastSent.Format(time.RFC3339)
	}
	return s
}
