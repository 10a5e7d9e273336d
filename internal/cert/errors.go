package cert

import "errors"

var (
	// ErrKeyImport indica que la clave privada provista no se pudo parsear.
	// Fatal en arranque: no hay recovery posible sin material de clave válido.
	ErrKeyImport = errors.New("key_import_failed")

	// ErrSigning indica estado de clave corrupto durante la emisión.
	// Se trata como bug/misconfiguración, nunca como input inválido.
	ErrSigning = errors.New("signing_failed")

	// ErrMalformedCertificate indica fallo estructural al parsear un certificado.
	// Nunca se propaga desde la verificación: se convierte en un Verdict inválido.
	ErrMalformedCertificate = errors.New("malformed_certificate")
)
