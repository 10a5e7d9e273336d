package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if c.Server.MaxUploadBytes != 50<<20 {
		t.Fatalf("max upload = %d", c.Server.MaxUploadBytes)
	}
	if c.Rate.MaxAttempts != 20 || c.RateWindow() != 5*time.Minute {
		t.Fatalf("rate defaults: %d / %v", c.Rate.MaxAttempts, c.RateWindow())
	}
	if c.VerifySkew() != 0 {
		t.Fatalf("skew default = %v", c.VerifySkew())
	}
	if c.Registry.Driver != "memory" {
		t.Fatalf("driver = %q", c.Registry.Driver)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9090"
registry:
  driver: redis
  redis:
    addr: "localhost:6379"
rate:
  enabled: true
  max_attempts: 5
  window: "1m"
verify:
  skew: "2m"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("RATE_MAX_ATTEMPTS", "9")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	// env pisa yaml
	if c.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if c.Rate.MaxAttempts != 9 {
		t.Fatalf("max_attempts = %d", c.Rate.MaxAttempts)
	}
	// yaml pisa defaults
	if c.VerifySkew() != 2*time.Minute {
		t.Fatalf("skew = %v", c.VerifySkew())
	}
	if c.Registry.Driver != "redis" || c.Registry.Redis.Addr != "localhost:6379" {
		t.Fatalf("registry: %+v", c.Registry)
	}
}

func TestLoad_RejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	cases := map[string]string{
		"driver desconocido": "registry:\n  driver: cassandra\n",
		"postgres sin dsn":   "registry:\n  driver: postgres\n",
		"redis sin addr":     "registry:\n  driver: redis\n",
		"duration invalida":  "verify:\n  skew: \"un rato\"\n",
	}
	for name, body := range cases {
		if _, err := Load(write(name+".yaml", body)); err == nil {
			t.Errorf("%s: tendría que fallar", name)
		}
	}
}

func TestLoad_ProdForcesTLSVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "app:\n  app_env: prod\nsmtp:\n  insecure_skip_verify: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.SMTP.InsecureSkipVerify {
		t.Fatal("en prod insecure_skip_verify tiene que quedar en false")
	}
}
