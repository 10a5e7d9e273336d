package cert

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
)

// KeyPair mantiene el único par de claves Ed25519 activo del proceso.
// Lectura concurrente segura (export de pública puede correr en paralelo
// con la firma). Nunca se regenera una vez cargado.
type KeyPair struct {
	mu   sync.RWMutex
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Generate crea un par Ed25519 efímero con crypto/rand.
// Usado cuando no hay clave persistida configurada.
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv, pub: pub}, nil
}

// Load parsea una clave privada PEM (PKCS#8) provista externamente y deriva
// la pública. Input malformado => ErrKeyImport (fatal en arranque).
func Load(privateKeyPEM string) (*KeyPair, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyImport)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an Ed25519 private key", ErrKeyImport)
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: cannot derive public key", ErrKeyImport)
	}
	return &KeyPair{priv: priv, pub: pub}, nil
}

// Private devuelve la clave privada activa. Sólo para firmar material
// propio del servicio (certificados, tokens admin); nunca se serializa
// fuera de PrivatePEM.
func (k *KeyPair) Private() ed25519.PrivateKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.priv
}

// Public devuelve la clave pública activa.
func (k *KeyPair) Public() ed25519.PublicKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pub
}

// PublicPEM exporta la clave pública en PEM (SubjectPublicKeyInfo).
func (k *KeyPair) PublicPEM() (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	der, err := x509.MarshalPKIXPublicKey(k.pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// PrivatePEM exporta la clave privada en PEM (PKCS#8, sin cifrar).
// Material sensible: el caller nunca debe loguearla.
func (k *KeyPair) PrivatePEM() (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	der, err := x509.MarshalPKCS8PrivateKey(k.priv)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// sign firma msg con la clave activa. Estado de clave inutilizable => ErrSigning.
func (k *KeyPair) sign(msg []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key has %d bytes, want %d", ErrSigning, len(k.priv), ed25519.PrivateKeySize)
	}
	return ed25519.Sign(k.priv, msg), nil
}

// ParsePublicKeyPEM parsea una clave pública PEM (SubjectPublicKeyInfo) Ed25519.
// Usada para el override de clave en verificación.
func ParsePublicKeyPEM(pubPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyImport)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an Ed25519 public key", ErrKeyImport)
	}
	return pub, nil
}
