package cert

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testIssuer(t *testing.T) (*Issuer, *KeyPair) {
	t.Helper()
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return NewIssuer(kp), kp
}

func futureDeadline() string {
	return time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	doc := []byte("This is a test submission")

	c, err := issuer.Issue(doc, "alamedahacks-2026", futureDeadline(), "dev@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if c.Version != Version {
		t.Fatalf("version = %q", c.Version)
	}

	v := NewVerifier(kp, 0)
	verdict := v.Verify(c, doc, nil)
	if !verdict.Valid {
		t.Fatalf("round-trip tiene que ser válido, checks=%v reason=%q", verdict.Checks, verdict.Reason)
	}
	for _, name := range checkOrder {
		if !verdict.Checks[name] {
			t.Fatalf("check %s = false", name)
		}
	}
	if verdict.Reason != "" {
		t.Fatalf("reason tiene que estar vacío en verdicts válidos: %q", verdict.Reason)
	}
	if verdict.SubmissionID != c.Payload.SubmissionID {
		t.Fatalf("submission id %q != %q", verdict.SubmissionID, c.Payload.SubmissionID)
	}
}

func TestIssue_EmptyDocumentIsLegal(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	c, err := issuer.Issue(nil, "ns", futureDeadline(), "")
	if err != nil {
		t.Fatalf("Issue con doc vacío: %v", err)
	}
	if v := NewVerifier(kp, 0).Verify(c, nil, nil); !v.Valid {
		t.Fatalf("verdict inválido para doc vacío: %v", v.Checks)
	}
}

func TestIssue_UniqueIdentifiers(t *testing.T) {
	t.Parallel()

	issuer, _ := testIssuer(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		c, err := issuer.Issue([]byte("same doc"), "ns", futureDeadline(), "")
		if err != nil {
			t.Fatal(err)
		}
		if seen[c.Payload.SubmissionID] || seen[c.Payload.Nonce] {
			t.Fatal("submission_id/nonce repetido")
		}
		seen[c.Payload.SubmissionID] = true
		seen[c.Payload.Nonce] = true
	}
}

func TestVerify_TamperedContent(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	c, err := issuer.Issue([]byte("original"), "ns", futureDeadline(), "")
	if err != nil {
		t.Fatal(err)
	}

	verdict := NewVerifier(kp, 0).Verify(c, []byte("DIFFERENT"), nil)
	if verdict.Valid {
		t.Fatal("contenido alterado no puede ser válido")
	}
	if verdict.Checks[CheckContent] {
		t.Fatal("content_match tiene que ser false")
	}
	// la firma sigue siendo válida: el payload no fue tocado
	if !verdict.Checks[CheckSignature] {
		t.Fatal("signature_valid tiene que seguir true")
	}
	if !strings.Contains(verdict.Reason, failureMessages[CheckContent]) {
		t.Fatalf("reason sin mensaje de contenido: %q", verdict.Reason)
	}
}

func TestVerify_DeadlineInPast(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	c, err := issuer.Issue([]byte("late"), "ns", past, "")
	if err != nil {
		t.Fatal(err)
	}

	verdict := NewVerifier(kp, 0).Verify(c, []byte("late"), nil)
	if verdict.Valid {
		t.Fatal("emitido después del deadline no puede ser válido")
	}
	if verdict.Checks[CheckDeadline] {
		t.Fatal("before_deadline tiene que ser false")
	}
	// los otros predicados se reportan igual (sin short-circuit)
	if len(verdict.Checks) != 4 {
		t.Fatalf("checks incompleto: %v", verdict.Checks)
	}
}

func TestVerify_SignatureBinding(t *testing.T) {
	t.Parallel()

	issuer, _ := testIssuer(t)
	c, err := issuer.Issue([]byte("doc"), "ns", futureDeadline(), "")
	if err != nil {
		t.Fatal(err)
	}

	// verificar contra una clave que NO firmó
	other, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	verdict := NewVerifier(other, 0).Verify(c, []byte("doc"), nil)
	if verdict.Checks[CheckSignature] {
		t.Fatal("signature_valid tiene que ser false con otra clave")
	}
	if !verdict.Checks[CheckContent] {
		t.Fatal("content_match es independiente de la firma")
	}
	if verdict.Valid {
		t.Fatal("verdict no puede ser válido")
	}
}

func TestVerify_FutureTimestampRejected(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(10 * time.Minute) } // reloj emisor adelantado

	c, err := issuer.Issue([]byte("doc"), "ns", futureDeadline(), "")
	if err != nil {
		t.Fatal(err)
	}

	verdict := NewVerifier(kp, 0).Verify(c, []byte("doc"), nil)
	if verdict.Checks[CheckTimestamp] {
		t.Fatal("timestamp futuro tiene que fallar con skew 0")
	}

	// con tolerancia configurada el mismo certificado pasa
	tolerant := NewVerifier(kp, 15*time.Minute)
	if v := tolerant.Verify(c, []byte("doc"), nil); !v.Checks[CheckTimestamp] {
		t.Fatal("con skew 15m el timestamp tiene que aceptarse")
	}
}

func TestVerify_TamperedPayloadBreaksSignature(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	c, err := issuer.Issue([]byte("doc"), "ns", futureDeadline(), "")
	if err != nil {
		t.Fatal(err)
	}
	c.Payload.NamespaceID = "otro-ns" // mutación post-emisión

	verdict := NewVerifier(kp, 0).Verify(c, []byte("doc"), nil)
	if verdict.Checks[CheckSignature] {
		t.Fatal("payload mutado tiene que invalidar la firma")
	}
}

func TestVerify_ContactIsPartOfSignedBytes(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	c, err := issuer.Issue([]byte("doc"), "ns", futureDeadline(), "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}
	c.Payload.Contact = "" // descartar el campo opcional firmado

	verdict := NewVerifier(kp, 0).Verify(c, []byte("doc"), nil)
	if verdict.Checks[CheckSignature] {
		t.Fatal("quitar contact firmado tiene que romper la firma")
	}
}

func TestVerifyRaw_MalformedCertificates(t *testing.T) {
	t.Parallel()

	_, kp := testIssuer(t)
	v := NewVerifier(kp, 0)

	cases := []string{
		"not json at all",
		`{}`,
		`{"payload":{},"signature":"aaaa","version":"1.0.0"}`,
		`{"signature":"aaaa","version":"1.0.0"}`,
		`{"payload":{"content_hash":"x","timestamp":"t","namespace_id":"n","deadline":"d","submission_id":"s","nonce":"n"},"version":"1.0.0"}`,
		`{"payload":{"content_hash":"x","timestamp":"t","namespace_id":"n","deadline":"d","submission_id":"s","nonce":"n"},"signature":"!!!","version":"1.0.0"}`,
		`{"payload":{"content_hash":"x","timestamp":"t","namespace_id":"n","deadline":"d","submission_id":"s","nonce":"n"},"signature":"aaaa","version":"1.0.0","extra":1}`,
	}
	for _, raw := range cases {
		verdict := v.VerifyRaw([]byte(raw), []byte("doc"), nil)
		if verdict.Valid {
			t.Fatalf("certificado malformado aceptado: %s", raw)
		}
		if verdict.SubmissionID != unknownField || verdict.NamespaceID != unknownField {
			t.Fatalf("sentinel unknown esperado: %+v", verdict)
		}
		if len(verdict.Checks) != 0 {
			t.Fatalf("checks tiene que ir vacío en fallo estructural: %v", verdict.Checks)
		}
		if verdict.Reason == "" {
			t.Fatalf("reason vacío para: %s", raw)
		}
	}
}

func TestVerifyRaw_WireFormatRoundTrip(t *testing.T) {
	t.Parallel()

	issuer, kp := testIssuer(t)
	c, err := issuer.Issue([]byte("doc"), "ns", futureDeadline(), "")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}

	verdict := NewVerifier(kp, 0).VerifyRaw(raw, []byte("doc"), nil)
	if !verdict.Valid {
		t.Fatalf("round-trip por wire inválido: checks=%v reason=%q", verdict.Checks, verdict.Reason)
	}
}

func TestFailureReason_FixedOrder(t *testing.T) {
	t.Parallel()

	reason := failureReason(map[string]bool{
		CheckSignature: false,
		CheckContent:   false,
		CheckDeadline:  false,
		CheckTimestamp: false,
	})
	want := failureMessages[CheckSignature] + reasonSep +
		failureMessages[CheckContent] + reasonSep +
		failureMessages[CheckDeadline] + reasonSep +
		failureMessages[CheckTimestamp]
	if reason != want {
		t.Fatalf("orden de reason roto:\n got %q\nwant %q", reason, want)
	}
}
