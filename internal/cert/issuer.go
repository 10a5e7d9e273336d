package cert

import (
	"encoding/base64"
	"fmt"
	"time"

	tokens "github.com/dropDatabas3/cryptoqr/internal/security/token"
)

// tamaño en bytes de submission_id y nonce (128 bits cada uno).
const tokenBytes = 16

// Issuer construye y firma certificados con la clave activa.
// Sin side effects observables: la detección de duplicados vive en el
// registry, una capa arriba.
type Issuer struct {
	keys *KeyPair
	now  func() time.Time // inyectable para tests
}

// NewIssuer crea un Issuer sobre el par de claves dado.
func NewIssuer(keys *KeyPair) *Issuer {
	return &Issuer{keys: keys, now: time.Now}
}

// Issue emite un certificado firmado para data. Documentos vacíos son legales:
// los límites de tamaño son política de ingestión, no del core.
// Falla solo con ErrSigning (clave inutilizable); construcción atómica:
// si la firma falla no queda certificado parcial.
func (i *Issuer) Issue(data []byte, namespaceID, deadline, contact string) (*Certificate, error) {
	submissionID, err := tokens.GenerateOpaqueToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: submission id: %v", ErrSigning, err)
	}
	nonce, err := tokens.GenerateOpaqueToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrSigning, err)
	}

	p := Payload{
		ContentHash:  Hash(data),
		Timestamp:    i.now().UTC().Format(time.RFC3339),
		NamespaceID:  namespaceID,
		Deadline:     deadline,
		SubmissionID: submissionID,
		Nonce:        nonce,
		Contact:      contact,
	}

	canonical, err := CanonicalBytes(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	sig, err := i.keys.sign(canonical)
	if err != nil {
		return nil, err
	}

	return &Certificate{
		Payload:   p,
		Signature: base64.StdEncoding.EncodeToString(sig),
		Version:   Version,
	}, nil
}
