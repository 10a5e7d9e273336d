package controllers

import (
	"net/http"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/http/dto"
	httperrors "github.com/dropDatabas3/cryptoqr/internal/http/errors"
	"github.com/dropDatabas3/cryptoqr/internal/http/helpers"
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
)

// KeysController expone la clave pública de verificación.
type KeysController struct {
	service *svc.VerifyService
}

func NewKeysController(service *svc.VerifyService) *KeysController {
	return &KeysController{service: service}
}

// PublicKey responde la clave en PKIX PEM para verificación offline.
func (c *KeysController) PublicKey(w http.ResponseWriter, r *http.Request) {
	pem, err := c.service.PublicKeyPEM()
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.PublicKeyResponse{
		Algorithm:    "Ed25519",
		PublicKeyPEM: pem,
		Version:      cert.Version,
	})
}
