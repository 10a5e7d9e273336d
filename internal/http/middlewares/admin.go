package middlewares

import (
	"crypto/ed25519"
	"net/http"
	"strings"

	"github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/security/admintoken"
)

// AdminConfig configura el middleware de endpoints administrativos.
type AdminConfig struct {
	// Enforce: si es false (modo desarrollo), siempre permite.
	Enforce   bool
	PublicKey ed25519.PublicKey
	Issuer    string
}

// RequireAdmin exige un Bearer token admin válido cuando Enforce está activo.
func RequireAdmin(cfg AdminConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enforce {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}
			sub, err := admintoken.Verify(cfg.PublicKey, cfg.Issuer, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("invalid admin token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(setAdminSubject(r.Context(), sub)))
		})
	}
}
