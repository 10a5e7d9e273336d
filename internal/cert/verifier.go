package cert

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"time"
)

// Nombres de predicados en el orden fijo del contrato. El orden importa:
// los mensajes de reason se concatenan en este orden para que las
// aserciones sean reproducibles.
const (
	CheckSignature = "signature_valid"
	CheckContent   = "content_match"
	CheckDeadline  = "before_deadline"
	CheckTimestamp = "timestamp_valid"
)

var checkOrder = [...]string{CheckSignature, CheckContent, CheckDeadline, CheckTimestamp}

var failureMessages = map[string]string{
	CheckSignature: "Invalid cryptographic signature",
	CheckContent:   "File content does not match certificate",
	CheckDeadline:  "Submission was after deadline",
	CheckTimestamp: "Invalid or suspicious timestamp",
}

// separador fijo entre mensajes de reason.
const reasonSep = "; "

// unknownField es el sentinel para campos identificatorios cuando el
// certificado ni siquiera pudo parsearse.
const unknownField = "unknown"

// Verdict es el resultado estructurado de una verificación. Siempre completo,
// nunca una excepción; se produce fresco por llamada y no se persiste.
type Verdict struct {
	Valid        bool            `json:"valid"`
	SubmissionID string          `json:"submission_id"`
	Timestamp    string          `json:"timestamp"`
	NamespaceID  string          `json:"namespace_id"`
	Checks       map[string]bool `json:"checks"`
	Reason       string          `json:"reason,omitempty"`
}

// Verifier corre los cuatro predicados de verificación contra un certificado.
//
// ClockSkew: tolerancia hacia adelante para timestamp_valid. El contrato por
// defecto es cero (un host con reloj atrasado respecto del emisor rechaza
// certificados recién emitidos); se puede configurar una ventana chica (ej 2m)
// vía config.
type Verifier struct {
	keys *KeyPair
	skew time.Duration
	now  func() time.Time
}

// NewVerifier crea un Verifier con la clave propia de la instancia y la
// tolerancia de reloj dada (0 = contrato estricto).
func NewVerifier(keys *KeyPair, skew time.Duration) *Verifier {
	return &Verifier{keys: keys, skew: skew, now: time.Now}
}

// VerifyRaw parsea un certificado no-confiable y lo verifica contra data.
// Nunca devuelve error: fallo estructural => Verdict inválido con sentinels
// "unknown", checks vacío y reason descriptivo.
func (v *Verifier) VerifyRaw(raw, data []byte, pub ed25519.PublicKey) Verdict {
	c, err := ParseCertificate(raw)
	if err != nil {
		return Verdict{
			Valid:        false,
			SubmissionID: unknownField,
			Timestamp:    unknownField,
			NamespaceID:  unknownField,
			Checks:       map[string]bool{},
			Reason:       "Verification error: " + err.Error(),
		}
	}
	return v.Verify(c, data, pub)
}

// Verify corre los cuatro predicados, todos siempre (sin short-circuit: el
// mapa de checks tiene que quedar completo para diagnóstico), y agrega el
// AND lógico en Valid. pub es el override explícito; nil => clave propia.
func (v *Verifier) Verify(c *Certificate, data []byte, pub ed25519.PublicKey) Verdict {
	if pub == nil && v.keys != nil {
		pub = v.keys.Public()
	}

	checks := map[string]bool{
		CheckSignature: v.verifySignature(c, pub),
		CheckContent:   c.Payload.ContentHash == Hash(data),
		CheckDeadline:  v.verifyDeadline(c.Payload),
		CheckTimestamp: v.verifyTimestamp(c.Payload),
	}

	valid := true
	for _, ok := range checks {
		valid = valid && ok
	}

	verdict := Verdict{
		Valid:        valid,
		SubmissionID: c.Payload.SubmissionID,
		Timestamp:    c.Payload.Timestamp,
		NamespaceID:  c.Payload.NamespaceID,
		Checks:       checks,
	}
	if !valid {
		verdict.Reason = failureReason(checks)
	}
	return verdict
}

// verifySignature re-serializa el payload embebido en forma canónica y
// verifica la firma. Cualquier error de parseo/verificación => false,
// nunca se propaga.
func (v *Verifier) verifySignature(c *Certificate, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(c.Signature)
	if err != nil {
		return false
	}
	canonical, err := CanonicalBytes(c.Payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, canonical, sig)
}

// verifyDeadline: timestamp <= deadline, ambos RFC3339 UTC.
// Timestamps imparseables => false.
func (v *Verifier) verifyDeadline(p Payload) bool {
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return false
	}
	dl, err := time.Parse(time.RFC3339, p.Deadline)
	if err != nil {
		return false
	}
	return !ts.After(dl)
}

// verifyTimestamp: la emisión no puede estar fechada en el futuro relativo
// al reloj verificador (más la tolerancia configurada).
func (v *Verifier) verifyTimestamp(p Payload) bool {
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return false
	}
	return !ts.After(v.now().UTC().Add(v.skew))
}

// failureReason concatena los mensajes de los predicados fallidos, en el
// orden fijo del contrato.
func failureReason(checks map[string]bool) string {
	var msgs []string
	for _, name := range checkOrder {
		if !checks[name] {
			msgs = append(msgs, failureMessages[name])
		}
	}
	return strings.Join(msgs, reasonSep)
}
