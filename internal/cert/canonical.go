package cert

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// CanonicalBytes serializa el payload en forma canónica (RFC 8785 / JCS):
// keys ordenadas, encoding único, campos opcionales ausentes omitidos.
// Función pura: mismo Payload => mismos bytes, entre procesos y restarts.
//
// Dos payloads lógicamente iguales con y sin contact producen bytes distintos:
// el caller tiene que preservar exactamente los campos firmados o la
// verificación de firma falla.
func CanonicalBytes(p Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	out, err := jcs.Transform(b)
	if err != nil {
		return nil, fmt.Errorf("jcs transform: %w", err)
	}
	return out, nil
}
