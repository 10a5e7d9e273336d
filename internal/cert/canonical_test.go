package cert

import (
	"bytes"
	"strings"
	"testing"
)

func TestHash_DeterministicAndFixedLength(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{nil, {}, []byte("hola"), bytes.Repeat([]byte{0xFF}, 1<<16)}
	for _, in := range inputs {
		a := Hash(in)
		b := Hash(in)
		if a != b {
			t.Fatalf("hash no determinístico para input de %d bytes", len(in))
		}
		if len(a) != 64 {
			t.Fatalf("largo de digest = %d, quiero 64", len(a))
		}
	}

	// vacío es legal y está definido
	if got := Hash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("sha256 de vacío inesperado: %s", got)
	}
}

func TestCanonicalBytes_Deterministic(t *testing.T) {
	t.Parallel()

	p := Payload{
		ContentHash:  Hash([]byte("doc")),
		Timestamp:    "2026-01-10T12:00:00Z",
		NamespaceID:  "alamedahacks-2026",
		Deadline:     "2026-01-11T09:00:00Z",
		SubmissionID: "sub-1",
		Nonce:        "nonce-1",
	}

	a, err := CanonicalBytes(p)
	if err != nil {
		t.Fatalf("CanonicalBytes: %v", err)
	}
	b, err := CanonicalBytes(p)
	if err != nil {
		t.Fatalf("CanonicalBytes: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("serialización canónica no determinística:\n%s\n%s", a, b)
	}

	// keys ordenadas: content_hash va antes que timestamp en el output
	s := string(a)
	if strings.Index(s, "content_hash") > strings.Index(s, "timestamp") {
		t.Fatalf("keys sin ordenar: %s", s)
	}
}

func TestCanonicalBytes_ContactOmittedWhenAbsent(t *testing.T) {
	t.Parallel()

	base := Payload{
		ContentHash:  Hash([]byte("doc")),
		Timestamp:    "2026-01-10T12:00:00Z",
		NamespaceID:  "ns",
		Deadline:     "2026-01-11T09:00:00Z",
		SubmissionID: "sub-1",
		Nonce:        "n-1",
	}
	withContact := base
	withContact.Contact = "dev@example.com"

	a, err := CanonicalBytes(base)
	if err != nil {
		t.Fatal(err)
	}
	b, err := CanonicalBytes(withContact)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(a, []byte("contact")) {
		t.Fatalf("contact ausente no debe aparecer en los bytes canónicos: %s", a)
	}
	if !bytes.Contains(b, []byte("contact")) {
		t.Fatalf("contact presente tiene que estar firmado: %s", b)
	}
	if bytes.Equal(a, b) {
		t.Fatal("payloads con y sin contact tienen que producir bytes distintos")
	}
}
