// Package email envía la notificación de comprobante al contacto de una
// submission, con el certificado JSON adjunto. El envío es best-effort:
// un SMTP caído nunca bloquea ni invalida la emisión.
package email

import "errors"

var ErrSendFailed = errors.New("email: send failed")

// Attachment es un adjunto en memoria.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message es un email listo para enviar, multipart/alternative si hay
// ambas versiones del cuerpo.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Sender es la interfaz para enviar emails. Implementada por SMTPSender.
type Sender interface {
	Send(msg Message) error
}
