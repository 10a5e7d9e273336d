package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		MaxUploadBytes     int64    `yaml:"max_upload_bytes"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Keys struct {
		// Ruta al PEM PKCS#8 de la clave Ed25519. Vacío => clave
		// efímera generada al arrancar (los certificados no sobreviven
		// un restart; se loguea warning).
		PrivateKeyPath string `yaml:"private_key_path"`
		// Si el PEM está cifrado con secretbox (nonce|ciphertext).
		Encrypted bool `yaml:"encrypted"`
	} `yaml:"keys"`

	Verify struct {
		// Tolerancia de clock-skew para el chequeo de timestamp.
		Skew string `yaml:"skew"`
	} `yaml:"verify"`

	Registry struct {
		Driver string `yaml:"driver"` // memory | redis | postgres
		DSN    string `yaml:"dsn"`    // postgres
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Migrate bool `yaml:"migrate"`
	} `yaml:"registry"`

	Rate struct {
		// nil = habilitado (default); sólo "enabled: false" explícito lo apaga.
		Enabled     *bool  `yaml:"enabled"`
		MaxAttempts int    `yaml:"max_attempts"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		StatsTTL string `yaml:"stats_ttl"`
	} `yaml:"cache"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"email"`

	Admin struct {
		Enabled bool   `yaml:"enabled"`
		Issuer  string `yaml:"issuer"`
		TTL     string `yaml:"ttl"`
	} `yaml:"admin"`

	Log struct {
		Level  string `yaml:"level"`  // debug | info | warn | error
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`
}

// Load lee el YAML (path vacío => todo defaults), aplica sane defaults
// y pisa con variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 50 << 20 // 50 MiB
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "30s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "60s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Verify.Skew == "" {
		c.Verify.Skew = "0s"
	}
	if c.Registry.Driver == "" {
		c.Registry.Driver = "memory"
	}
	if c.Rate.MaxAttempts == 0 {
		c.Rate.MaxAttempts = 20
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "5m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.StatsTTL == "" {
		c.Cache.StatsTTL = "30s"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Admin.Issuer == "" {
		c.Admin.Issuer = "cryptoqr"
	}
	if c.Admin.TTL == "" {
		c.Admin.TTL = "12h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	c.applyEnvOverrides()

	// Guardia dura: en prod nunca saltamos la verificación TLS.
	if strings.EqualFold(c.App.Env, "prod") {
		c.SMTP.InsecureSkipVerify = false
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvInt("SERVER_MAX_UPLOAD_BYTES"); ok {
		c.Server.MaxUploadBytes = int64(v)
	}

	// KEYS
	if v, ok := getEnvStr("KEYS_PRIVATE_KEY_PATH"); ok {
		c.Keys.PrivateKeyPath = v
	}
	if v, ok := getEnvBool("KEYS_ENCRYPTED"); ok {
		c.Keys.Encrypted = v
	}

	// VERIFY
	if v, ok := getEnvStr("VERIFY_SKEW"); ok {
		c.Verify.Skew = v
	}

	// REGISTRY
	if v, ok := getEnvStr("REGISTRY_DRIVER"); ok {
		c.Registry.Driver = v
	}
	if v, ok := getEnvStr("REGISTRY_DSN"); ok {
		c.Registry.DSN = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Registry.Redis.Addr = v
		if c.Cache.Redis.Addr == "" {
			c.Cache.Redis.Addr = v
		}
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Registry.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Registry.Redis.DB = v
	}
	if v, ok := getEnvBool("REGISTRY_MIGRATE"); ok {
		c.Registry.Migrate = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = &v
	}
	if v, ok := getEnvInt("RATE_MAX_ATTEMPTS"); ok {
		c.Rate.MaxAttempts = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_STATS_TTL"); ok {
		c.Cache.StatsTTL = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = v
	}
	if v, ok := getEnvBool("EMAIL_ENABLED"); ok {
		c.Email.Enabled = v
	}

	// ADMIN
	if v, ok := getEnvBool("ADMIN_ENABLED"); ok {
		c.Admin.Enabled = v
	}
	if v, ok := getEnvStr("ADMIN_ISSUER"); ok {
		c.Admin.Issuer = v
	}
	if v, ok := getEnvStr("ADMIN_TTL"); ok {
		c.Admin.TTL = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}
}

// Validate chequea durations y el driver del registry.
func (c *Config) Validate() error {
	for name, s := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"verify.skew":             c.Verify.Skew,
		"rate.window":             c.Rate.Window,
		"cache.stats_ttl":         c.Cache.StatsTTL,
		"admin.ttl":               c.Admin.TTL,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}

	switch c.Registry.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("config: registry.driver %q no soportado", c.Registry.Driver)
	}
	if c.Registry.Driver == "postgres" && c.Registry.DSN == "" {
		return fmt.Errorf("config: registry.driver postgres requiere dsn")
	}
	if c.Registry.Driver == "redis" && c.Registry.Redis.Addr == "" {
		return fmt.Errorf("config: registry.driver redis requiere redis.addr")
	}
	return nil
}

// Duration helpers: las strings ya pasaron Validate.

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// RateEnabled: el limitador corre salvo opt-out explícito.
func (c *Config) RateEnabled() bool {
	if c.Rate.Enabled == nil {
		return true
	}
	return *c.Rate.Enabled
}

func (c *Config) VerifySkew() time.Duration      { return mustDur(c.Verify.Skew) }
func (c *Config) RateWindow() time.Duration      { return mustDur(c.Rate.Window) }
func (c *Config) StatsTTL() time.Duration        { return mustDur(c.Cache.StatsTTL) }
func (c *Config) AdminTTL() time.Duration        { return mustDur(c.Admin.TTL) }
func (c *Config) ReadTimeout() time.Duration     { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration    { return mustDur(c.Server.WriteTimeout) }
func (c *Config) ShutdownTimeout() time.Duration { return mustDur(c.Server.ShutdownTimeout) }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
