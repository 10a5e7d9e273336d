package services

import (
	"context"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
)

// VerifyService corre la verificación multi-predicado.
type VerifyService struct {
	verifier *cert.Verifier
	keys     *cert.KeyPair
}

func NewVerifyService(d Deps) *VerifyService {
	return &VerifyService{verifier: d.Verifier, keys: d.Keys}
}

// Verify evalúa el certificado contra el contenido. Nunca retorna error
// por certificados rotos: eso es un veredicto inválido, no una falla.
func (s *VerifyService) Verify(_ context.Context, rawCert, content []byte) cert.Verdict {
	return s.verifier.VerifyRaw(rawCert, content, nil)
}

// PublicKeyPEM expone la clave pública de verificación en PKIX PEM.
func (s *VerifyService) PublicKeyPEM() (string, error) {
	pem, err := s.keys.PublicPEM()
	if err != nil {
		return "", httperrors.ErrInternalServerError.WithCause(err)
	}
	return pem, nil
}
