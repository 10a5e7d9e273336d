// Package cert implementa el núcleo criptográfico del servicio: hashing de
// contenido, serialización canónica, manejo de claves Ed25519, emisión y
// verificación de certificados de submission.
//
// Un Certificate es un bundle auto-contenido {payload, signature, version}
// que prueba que un documento existió, sin modificaciones, antes de un
// deadline declarado. La verificación nunca lanza errores para input
// no-confiable: siempre produce un Verdict.
package cert

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Version es el tag de formato del certificado emitido.
const Version = "1.0.0"

// Payload es el statement firmado. Inmutable una vez emitido: cualquier
// mutación invalida la firma.
type Payload struct {
	ContentHash  string `json:"content_hash"`
	Timestamp    string `json:"timestamp"` // RFC3339 UTC
	NamespaceID  string `json:"namespace_id"`
	Deadline     string `json:"deadline"` // RFC3339 UTC
	SubmissionID string `json:"submission_id"`
	Nonce        string `json:"nonce"`
	// Contact es informativo: no participa en ningún predicado de verificación.
	// Ausente => se omite por completo de los bytes canónicos (ver canonical.go).
	Contact string `json:"contact,omitempty"`
}

// Certificate es el bundle emitido por el Issuer y consumido por el Verifier.
// Representación wire: {"payload": {...}, "signature": base64, "version": "1.0.0"}
type Certificate struct {
	Payload   Payload `json:"payload"`
	Signature string  `json:"signature"` // base64 (std) de la firma Ed25519
	Version   string  `json:"version"`
}

// ParseCertificate decodifica y valida estrictamente un certificado no-confiable.
// Campos desconocidos o faltantes => ErrMalformedCertificate (schema estricto en
// el borde, nada de field access optimista).
func ParseCertificate(raw []byte) (*Certificate, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var c Certificate
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Certificate) validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: missing field %q", ErrMalformedCertificate, field)
	}
	switch {
	case c.Payload.ContentHash == "":
		return missing("payload.content_hash")
	case c.Payload.Timestamp == "":
		return missing("payload.timestamp")
	case c.Payload.NamespaceID == "":
		return missing("payload.namespace_id")
	case c.Payload.Deadline == "":
		return missing("payload.deadline")
	case c.Payload.SubmissionID == "":
		return missing("payload.submission_id")
	case c.Payload.Nonce == "":
		return missing("payload.nonce")
	case c.Signature == "":
		return missing("signature")
	case c.Version == "":
		return missing("version")
	}
	if _, err := base64.StdEncoding.DecodeString(c.Signature); err != nil {
		return fmt.Errorf("%w: signature is not valid base64: %v", ErrMalformedCertificate, err)
	}
	return nil
}
