package dto

import "github.com/dropDatabas3/cryptoqr/internal/cert"

// PublicKeyResponse es la respuesta de GET /api/public-key.
type PublicKeyResponse struct {
	Algorithm    string `json:"algorithm"`
	PublicKeyPEM string `json:"public_key_pem"`
	Version      string `json:"version"`
}

// VerificationExport es el cuerpo descargable de POST /api/verify/export:
// el veredicto completo más quién y cuándo lo emitió, como comprobante
// portable de la verificación.
type VerificationExport struct {
	cert.Verdict
	VerifiedAt string `json:"verified_at"`
	VerifiedBy string `json:"verified_by"`
}
