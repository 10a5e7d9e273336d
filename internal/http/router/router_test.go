package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cache"
	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/http/controllers"
	"github.com/dropDatabas3/cryptoqr/internal/http/middlewares"
	"github.com/dropDatabas3/cryptoqr/internal/http/router"
	"github.com/dropDatabas3/cryptoqr/internal/http/services"
	"github.com/dropDatabas3/cryptoqr/internal/rate"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
	"github.com/dropDatabas3/cryptoqr/internal/security/admintoken"
)

type testEnv struct {
	handler http.Handler
	keys    *cert.KeyPair
}

type limiterAdapter struct{ l rate.Limiter }

func (a limiterAdapter) Allow(ctx context.Context, key string) (middlewares.RateLimitResult, error) {
	res, err := a.l.Allow(ctx, key)
	if err != nil {
		return middlewares.RateLimitResult{}, err
	}
	return middlewares.RateLimitResult{
		Allowed:     res.Allowed,
		Remaining:   res.Remaining,
		RetryAfter:  res.RetryAfter,
		WindowTTL:   res.WindowTTL,
		CurrentHits: res.CurrentHits,
	}, nil
}

func newTestEnv(t *testing.T, verifyLimit int, enforceAdmin bool) testEnv {
	t.Helper()

	keys, err := cert.Generate()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	store, err := cache.New(cache.Config{Driver: "memory", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	svcs := services.NewServices(services.Deps{
		Issuer:   cert.NewIssuer(keys),
		Verifier: cert.NewVerifier(keys, 0),
		Keys:     keys,
		Registry: registry.NewMemory(),
		Cache:    store,
		StatsTTL: time.Minute,
	})
	ctrls := controllers.NewControllers(svcs, controllers.Config{MaxUploadBytes: 1 << 20})

	var limiter middlewares.RateLimiter
	if verifyLimit > 0 {
		limiter = limiterAdapter{l: rate.NewMemoryLimiter(verifyLimit, time.Minute)}
	}

	h := router.New(router.Options{
		Controllers:   ctrls,
		VerifyLimiter: limiter,
		Admin: middlewares.AdminConfig{
			Enforce:   enforceAdmin,
			PublicKey: keys.Public(),
			Issuer:    "cryptoqr-test",
		},
	})
	return testEnv{handler: h, keys: keys}
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, "entrega.pdf")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(fileContent); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (e testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) submit(t *testing.T, content []byte, namespace, deadline string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{
		"namespace_id": namespace,
		"deadline":     deadline,
	}, "file", content)
	return e.do(t, http.MethodPost, "/api/submit", body, ct)
}

func futureDeadline() string {
	return time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
}

func TestSubmit_IssuesCertificate(t *testing.T) {
	env := newTestEnv(t, 0, false)

	rec := env.submit(t, []byte("contenido de la entrega"), "tp1-2026", futureDeadline())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SubmissionID string          `json:"submission_id"`
		NamespaceID  string          `json:"namespace_id"`
		ContentHash  string          `json:"content_hash"`
		Certificate  json.RawMessage `json:"certificate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SubmissionID == "" || resp.NamespaceID != "tp1-2026" {
		t.Fatalf("respuesta incompleta: %+v", resp)
	}
	if len(resp.ContentHash) != 64 {
		t.Fatalf("content_hash tiene que ser sha256 hex: %q", resp.ContentHash)
	}
	if _, err := cert.ParseCertificate(resp.Certificate); err != nil {
		t.Fatalf("el certificado embebido tiene que parsear: %v", err)
	}
}

func TestSubmit_DuplicateReturns409WithOriginal(t *testing.T) {
	env := newTestEnv(t, 0, false)
	deadline := futureDeadline()
	content := []byte("misma entrega dos veces")

	first := env.submit(t, content, "tp1", deadline)
	if first.Code != http.StatusCreated {
		t.Fatalf("primer submit: %d", first.Code)
	}
	var ok struct {
		SubmissionID string `json:"submission_id"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &ok); err != nil {
		t.Fatal(err)
	}

	second := env.submit(t, content, "tp1", deadline)
	if second.Code != http.StatusConflict {
		t.Fatalf("duplicado: status = %d, body = %s", second.Code, second.Body.String())
	}
	var dup struct {
		Code     string `json:"code"`
		Original struct {
			SubmissionID string `json:"submission_id"`
		} `json:"original"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &dup); err != nil {
		t.Fatal(err)
	}
	if dup.Original.SubmissionID != ok.SubmissionID {
		t.Fatalf("el 409 tiene que traer el registro original: %+v", dup)
	}

	// mismo contenido en otro namespace no es duplicado
	other := env.submit(t, content, "tp2", deadline)
	if other.Code != http.StatusCreated {
		t.Fatalf("otro namespace: %d", other.Code)
	}
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t, 0, false)

	// archivo vacío
	rec := env.submit(t, nil, "tp1", futureDeadline())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("archivo vacío: %d", rec.Code)
	}

	// deadline malformado
	rec = env.submit(t, []byte("x"), "tp1", "mañana a la noche")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("deadline inválido: %d", rec.Code)
	}

	// sin namespace
	rec = env.submit(t, []byte("x"), "", futureDeadline())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sin namespace: %d", rec.Code)
	}

	// sin archivo
	body, ct := multipartBody(t, map[string]string{"namespace_id": "tp1", "deadline": futureDeadline()}, "", nil)
	rec = env.do(t, http.MethodPost, "/api/submit", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sin archivo: %d", rec.Code)
	}
}

func (e testEnv) verify(t *testing.T, rawCert, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{"certificate": string(rawCert)}, "file", content)
	return e.do(t, http.MethodPost, "/api/verify", body, ct)
}

func TestVerify_RoundTrip(t *testing.T) {
	env := newTestEnv(t, 0, false)
	content := []byte("entrega firmada")

	rec := env.submit(t, content, "tp1", futureDeadline())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d", rec.Code)
	}
	var sub struct {
		Certificate json.RawMessage `json:"certificate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatal(err)
	}

	vrec := env.verify(t, sub.Certificate, content)
	if vrec.Code != http.StatusOK {
		t.Fatalf("verify: %d", vrec.Code)
	}
	var verdict struct {
		Valid  bool            `json:"valid"`
		Checks map[string]bool `json:"checks"`
	}
	if err := json.Unmarshal(vrec.Body.Bytes(), &verdict); err != nil {
		t.Fatal(err)
	}
	if !verdict.Valid || len(verdict.Checks) != 4 {
		t.Fatalf("round-trip tiene que ser válido: %+v", verdict)
	}

	// contenido adulterado: 200 con veredicto inválido, nunca error HTTP
	trec := env.verify(t, sub.Certificate, []byte("otro contenido"))
	if trec.Code != http.StatusOK {
		t.Fatalf("verify adulterado: %d", trec.Code)
	}
	var tampered struct {
		Valid  bool            `json:"valid"`
		Checks map[string]bool `json:"checks"`
	}
	if err := json.Unmarshal(trec.Body.Bytes(), &tampered); err != nil {
		t.Fatal(err)
	}
	if tampered.Valid || tampered.Checks["content_match"] {
		t.Fatalf("contenido adulterado tiene que fallar content_match: %+v", tampered)
	}
	if !tampered.Checks["signature_valid"] {
		t.Fatalf("la firma sigue siendo válida sobre el payload original: %+v", tampered)
	}
}

func TestVerify_MalformedCertificateIsVerdictNotError(t *testing.T) {
	env := newTestEnv(t, 0, false)

	rec := env.verify(t, []byte("{esto no es json"), []byte("doc"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var verdict struct {
		Valid        bool            `json:"valid"`
		SubmissionID string          `json:"submission_id"`
		Checks       map[string]bool `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.Valid || verdict.SubmissionID != "unknown" || len(verdict.Checks) != 0 {
		t.Fatalf("certificado roto => veredicto sentinel: %+v", verdict)
	}
}

func TestVerify_RateLimited(t *testing.T) {
	env := newTestEnv(t, 2, false)

	for i := 0; i < 2; i++ {
		rec := env.verify(t, []byte("{}"), []byte("doc"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := env.verify(t, []byte("{}"), []byte("doc"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("tercer request tiene que ser 429, fue %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("429 sin Retry-After")
	}

	// el resto de la API no se limita
	if hrec := env.do(t, http.MethodGet, "/healthz", nil, ""); hrec.Code != http.StatusOK {
		t.Fatalf("healthz limitado: %d", hrec.Code)
	}
}

func TestPublicKey_MatchesIssuerKey(t *testing.T) {
	env := newTestEnv(t, 0, false)

	rec := env.do(t, http.MethodGet, "/api/public-key", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Algorithm    string `json:"algorithm"`
		PublicKeyPEM string `json:"public_key_pem"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Algorithm != "Ed25519" {
		t.Fatalf("algorithm = %q", resp.Algorithm)
	}
	pub, err := cert.ParsePublicKeyPEM(resp.PublicKeyPEM)
	if err != nil {
		t.Fatalf("el PEM expuesto tiene que parsear: %v", err)
	}
	if !pub.Equal(env.keys.Public()) {
		t.Fatal("la clave expuesta no es la del emisor")
	}
}

func TestStats_CountsAndCaches(t *testing.T) {
	env := newTestEnv(t, 0, false)
	deadline := futureDeadline()
	env.submit(t, []byte("a"), "tp1", deadline)
	env.submit(t, []byte("b"), "tp1", deadline)

	rec := env.do(t, http.MethodGet, "/api/stats/tp1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats struct {
		NamespaceID string `json:"namespace_id"`
		Total       int64  `json:"total_submissions"`
		Cached      bool   `json:"cached"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Cached {
		t.Fatalf("primera lectura: %+v", stats)
	}

	rec = env.do(t, http.MethodGet, "/api/stats/tp1", nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if !stats.Cached {
		t.Fatalf("segunda lectura tiene que venir de cache: %+v", stats)
	}

	// namespace desconocido => total 0, no 404
	rec = env.do(t, http.MethodGet, "/api/stats/no-existe", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("namespace desconocido: %d", rec.Code)
	}
}

func TestDashboard_RequiresAdminToken(t *testing.T) {
	env := newTestEnv(t, 0, true)

	rec := env.do(t, http.MethodGet, "/api/dashboard", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sin token: %d", rec.Code)
	}

	tok, err := admintoken.Mint(env.keys.Private(), "cryptoqr-test", "ops", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec2 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("con token: %d, body = %s", rec2.Code, rec2.Body.String())
	}

	// token de otro issuer no sirve
	bad, err := admintoken.Mint(env.keys.Private(), "otro-servicio", "ops", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req3 := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req3.Header.Set("Authorization", "Bearer "+bad)
	rec3 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusForbidden {
		t.Fatalf("issuer ajeno: %d", rec3.Code)
	}
}

func TestVerifyExport_DownloadsReceipt(t *testing.T) {
	env := newTestEnv(t, 0, false)
	content := []byte("entrega a exportar")

	rec := env.submit(t, content, "tp1", futureDeadline())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d", rec.Code)
	}
	var sub struct {
		SubmissionID string          `json:"submission_id"`
		Certificate  json.RawMessage `json:"certificate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatal(err)
	}

	body, ct := multipartBody(t, map[string]string{"certificate": string(sub.Certificate)}, "file", content)
	erec := env.do(t, http.MethodPost, "/api/verify/export", body, ct)
	if erec.Code != http.StatusOK {
		t.Fatalf("export: %d, body = %s", erec.Code, erec.Body.String())
	}
	if got := erec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type = %q", got)
	}
	if cd := erec.Header().Get("Content-Disposition"); !strings.Contains(cd, "verification-"+sub.SubmissionID+".json") {
		t.Fatalf("content-disposition = %q", cd)
	}

	var receipt struct {
		Valid      bool            `json:"valid"`
		Checks     map[string]bool `json:"checks"`
		VerifiedAt string          `json:"verified_at"`
		VerifiedBy string          `json:"verified_by"`
	}
	if err := json.Unmarshal(erec.Body.Bytes(), &receipt); err != nil {
		t.Fatal(err)
	}
	if !receipt.Valid || len(receipt.Checks) != 4 {
		t.Fatalf("el comprobante tiene que traer el veredicto completo: %+v", receipt)
	}
	if !strings.HasPrefix(receipt.VerifiedBy, "cryptoqr v") {
		t.Fatalf("verified_by = %q", receipt.VerifiedBy)
	}
	if _, err := time.Parse(time.RFC3339, receipt.VerifiedAt); err != nil {
		t.Fatalf("verified_at no es RFC3339: %q", receipt.VerifiedAt)
	}
}

func TestVerifyExport_MalformedCertificateStillDownloads(t *testing.T) {
	env := newTestEnv(t, 0, false)

	body, ct := multipartBody(t, map[string]string{"certificate": "{roto"}, "file", []byte("doc"))
	rec := env.do(t, http.MethodPost, "/api/verify/export", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "verification-unknown.json") {
		t.Fatalf("content-disposition = %q", cd)
	}
	var receipt struct {
		Valid      bool            `json:"valid"`
		Checks     map[string]bool `json:"checks"`
		VerifiedAt string          `json:"verified_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatal(err)
	}
	if receipt.Valid || len(receipt.Checks) != 0 || receipt.VerifiedAt == "" {
		t.Fatalf("certificado roto: quiero veredicto centinela con metadata: %+v", receipt)
	}

	// sin certificado sí es un error de request
	body, ct = multipartBody(t, nil, "file", []byte("doc"))
	rec = env.do(t, http.MethodPost, "/api/verify/export", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sin certificado: %d", rec.Code)
	}
}

func TestRegistryExport_AdminOnlyCSV(t *testing.T) {
	env := newTestEnv(t, 0, true)
	deadline := futureDeadline()
	env.submit(t, []byte("a"), "tp1", deadline)
	env.submit(t, []byte("b"), "tp1", deadline)

	// sin token el dump no sale: trae contactos en claro
	rec := env.do(t, http.MethodGet, "/api/registry/export?namespace_id=tp1", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sin token: %d", rec.Code)
	}

	tok, err := admintoken.Mint(env.keys.Private(), "cryptoqr-test", "ops", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/registry/export?namespace_id=tp1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("con token: %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content-type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("header + 2 filas, hay %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "namespace_id,content_hash,submission_id") {
		t.Fatalf("header inesperado: %q", lines[0])
	}

	// sin namespace => 400, incluso autenticado
	req = httptest.NewRequest(http.MethodGet, "/api/registry/export", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sin namespace_id: %d", rec.Code)
	}
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t, 0, false)

	if rec := env.do(t, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("root: %d", rec.Code)
	}
	var root struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if root.Service != "cryptoqr" || len(root.Endpoints) == 0 {
		t.Fatalf("root incompleto: %+v", root)
	}

	if rec := env.do(t, http.MethodGet, "/api/email-status", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("email-status: %d", rec.Code)
	}
}
