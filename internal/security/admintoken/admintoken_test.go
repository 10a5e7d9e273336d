package admintoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

func TestMintVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := Mint(priv, "cryptoqr", "ops@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := Verify(pub, "cryptoqr", tok)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "ops@example.com" {
		t.Fatalf("sub = %q", sub)
	}
}

func TestVerify_RejectsWrongKeyIssuerAndExpired(t *testing.T) {
	t.Parallel()

	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	otherPub, _, _ := ed25519.GenerateKey(rand.Reader)

	tok, err := Mint(priv, "cryptoqr", "ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Verify(otherPub, "cryptoqr", tok); err == nil {
		t.Fatal("otra clave tendría que fallar")
	}
	if _, err := Verify(pub, "otro-issuer", tok); err == nil {
		t.Fatal("otro issuer tendría que fallar")
	}

	expired, err := Mint(priv, "cryptoqr", "ops", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(pub, "cryptoqr", expired); err == nil {
		t.Fatal("token expirado tendría que fallar")
	}
}
