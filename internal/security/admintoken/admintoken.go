// Package admintoken emite y valida los JWT EdDSA que protegen los
// endpoints administrativos. Se firman con la misma clave Ed25519 del
// servicio, así el operador no administra un segundo par de claves.
package admintoken

import (
	"crypto/ed25519"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const roleAdmin = "admin"

var (
	ErrInvalidToken = errors.New("admintoken: invalid token")
	ErrNotAdmin     = errors.New("admintoken: token has no admin role")
)

// Mint firma un token admin para sub con el TTL dado.
func Mint(priv ed25519.PrivateKey, issuer, sub string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":  issuer,
		"sub":  sub,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"role": roleAdmin,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(priv)
}

// Verify valida firma, emisor, expiración y rol. Devuelve el subject.
func Verify(pub ed25519.PublicKey, issuer, token string) (string, error) {
	tok, err := jwtv5.Parse(token,
		func(*jwtv5.Token) (any, error) { return pub, nil },
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(issuer),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != roleAdmin {
		return "", ErrNotAdmin
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
