// Package router arma el árbol de rutas de la API sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/dropDatabas3/cryptoqr/internal/http"
	"github.com/dropDatabas3/cryptoqr/internal/http/controllers"
	"github.com/dropDatabas3/cryptoqr/internal/http/middlewares"
)

// Options son las dependencias del router ya construidas.
type Options struct {
	Controllers        *controllers.Controllers
	CORSAllowedOrigins []string
	// VerifyLimiter limita los intentos de verificación por cliente.
	// nil => sin límite (tests, setups chicos).
	VerifyLimiter  middlewares.RateLimiter
	Admin          middlewares.AdminConfig
	MetricsHandler http.Handler
}

// New construye el handler raíz con la cadena de middlewares global y
// todas las rutas de la API.
func New(o Options) http.Handler {
	c := o.Controllers

	r := chi.NewRouter()
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithSecurityHeaders())
	r.Use(middlewares.WithCORS(o.CORSAllowedOrigins))
	r.Use(httpx.WithMetrics)

	r.Get("/", c.System.Root)
	r.Get("/healthz", c.System.Healthz)
	r.Get("/readyz", c.System.Readyz)
	if o.MetricsHandler != nil {
		r.Handle("/metrics", o.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/submit", c.Submission.Submit)

		// ambas variantes de verificación corren los predicados, las dos
		// van detrás del limitador
		api.Group(func(g chi.Router) {
			g.Use(middlewares.WithRateLimit(middlewares.RateLimitConfig{
				Limiter: o.VerifyLimiter,
				KeyFunc: middlewares.IPOnlyRateKey,
			}))
			g.Post("/verify", c.Verify.Verify)
			g.Post("/verify/export", c.Verify.Export)
		})

		api.Get("/public-key", c.Keys.PublicKey)
		api.Get("/stats/{namespace_id}", c.Stats.Stats)
		api.Get("/email-status", c.System.EmailStatus)

		api.Group(func(g chi.Router) {
			g.Use(middlewares.RequireAdmin(o.Admin))
			g.Get("/dashboard", c.Stats.Dashboard)
			// el dump trae contactos en claro, nunca sale sin token
			g.Get("/registry/export", c.Stats.ExportRegistry)
		})
	})

	return r
}
