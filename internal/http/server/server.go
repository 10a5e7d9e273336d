// Package server arma el servicio completo a partir de la config: claves,
// registro, limitador, cache, email, métricas, controllers y router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/cryptoqr/internal/cache"
	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/config"
	"github.com/dropDatabas3/cryptoqr/internal/email"
	httpx "github.com/dropDatabas3/cryptoqr/internal/http"
	"github.com/dropDatabas3/cryptoqr/internal/http/controllers"
	"github.com/dropDatabas3/cryptoqr/internal/http/middlewares"
	"github.com/dropDatabas3/cryptoqr/internal/http/router"
	"github.com/dropDatabas3/cryptoqr/internal/http/services"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
	"github.com/dropDatabas3/cryptoqr/internal/rate"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
	"github.com/dropDatabas3/cryptoqr/internal/security/secretbox"
)

// Server agrupa el http.Server listo para correr y los recursos que hay
// que cerrar al apagar.
type Server struct {
	HTTP     *http.Server
	Keys     *cert.KeyPair
	registry registry.Registry
	cfg      *config.Config
}

// limiterAdapter traduce el resultado del limitador al contrato del
// middleware sin acoplar los paquetes.
type limiterAdapter struct {
	l rate.Limiter
}

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

// Build construye el servicio completo. No arranca a escuchar: eso es
// responsabilidad del caller (ver cmd/service).
func Build(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.L().With(logger.Component("server"))

	keys, err := loadKeys(cfg)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	store, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.StatsTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	var notifier *email.Notifier
	if cfg.Email.Enabled {
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		sender.TLSMode = cfg.SMTP.TLS
		sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		notifier, err = email.NewNotifier(sender)
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		log.Info("email notifications enabled", logger.String("smtp_host", cfg.SMTP.Host))
	}

	svcs := services.NewServices(services.Deps{
		Issuer:   cert.NewIssuer(keys),
		Verifier: cert.NewVerifier(keys, cfg.VerifySkew()),
		Keys:     keys,
		Registry: reg,
		Cache:    store,
		StatsTTL: cfg.StatsTTL(),
		Notifier: notifier,
	})

	ctrls := controllers.NewControllers(svcs, controllers.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	metricsHandler, err := httpx.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Options{
		Controllers:        ctrls,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		VerifyLimiter:      buildLimiter(cfg),
		Admin: middlewares.AdminConfig{
			Enforce:   cfg.Admin.Enabled,
			PublicKey: keys.Public(),
			Issuer:    cfg.Admin.Issuer,
		},
		MetricsHandler: metricsHandler,
	})

	return &Server{
		HTTP: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
		},
		Keys:     keys,
		registry: reg,
		cfg:      cfg,
	}, nil
}

// Shutdown apaga el listener con gracia y cierra el registro.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)
	if cerr := s.registry.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// loadKeys carga la clave Ed25519 del path configurado (descifrando con
// secretbox si corresponde). Sin path genera una efímera: sirve para
// desarrollo pero los certificados no sobreviven un restart.
func loadKeys(cfg *config.Config) (*cert.KeyPair, error) {
	if cfg.Keys.PrivateKeyPath == "" {
		logger.L().Warn("no private key configured, generating ephemeral key pair; issued certificates will not verify after restart")
		return cert.Generate()
	}

	raw, err := os.ReadFile(cfg.Keys.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	pemData := string(raw)
	if cfg.Keys.Encrypted {
		pemData, err = secretbox.Decrypt(pemData)
		if err != nil {
			return nil, fmt.Errorf("decrypt private key: %w", err)
		}
	}
	return cert.Load(pemData)
}

func buildRegistry(ctx context.Context, cfg *config.Config) (registry.Registry, error) {
	switch cfg.Registry.Driver {
	case "memory", "":
		return registry.NewMemory(), nil
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Registry.Redis.Addr,
			Password: cfg.Registry.Redis.Password,
			DB:       cfg.Registry.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return registry.NewRedis(client, cfg.Registry.Redis.Prefix), nil
	case "postgres":
		pg, err := registry.NewPG(ctx, cfg.Registry.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Registry.Migrate {
			mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := pg.Migrate(mctx); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("registry driver desconocido: %q", cfg.Registry.Driver)
	}
}

// buildLimiter elige el backend del limitador: redis cuando el registro
// ya corre sobre redis (estado compartido entre réplicas), memoria en
// cualquier otro caso. nil si está deshabilitado.
func buildLimiter(cfg *config.Config) middlewares.RateLimiter {
	if !cfg.RateEnabled() {
		return nil
	}
	if cfg.Registry.Driver == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Registry.Redis.Addr,
			Password: cfg.Registry.Redis.Password,
			DB:       cfg.Registry.Redis.DB,
		})
		return limiterAdapter{l: rate.NewRedisLimiter(client, "rl:verify:", cfg.Rate.MaxAttempts, cfg.RateWindow())}
	}
	return limiterAdapter{l: rate.NewMemoryLimiter(cfg.Rate.MaxAttempts, cfg.RateWindow())}
}
