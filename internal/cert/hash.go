package cert

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash devuelve el SHA-256 de data en hexadecimal.
// Determinístico, largo fijo (64 chars) incluso para input vacío.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
