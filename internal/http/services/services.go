// Package services implementa la lógica de negocio detrás de los
// controllers: emisión, verificación, stats y diagnóstico.
package services

import (
	"time"

	"github.com/dropDatabas3/cryptoqr/internal/cache"
	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/email"
	"github.com/dropDatabas3/cryptoqr/internal/registry"
)

// Deps agrupa los colaboradores compartidos por los services.
type Deps struct {
	Issuer   *cert.Issuer
	Verifier *cert.Verifier
	Keys     *cert.KeyPair
	Registry registry.Registry
	Cache    cache.Cache
	StatsTTL time.Duration
	Notifier *email.Notifier
}

// Services agrupa todos los services de la API.
type Services struct {
	Submission *SubmissionService
	Verify     *VerifyService
	Stats      *StatsService
	System     *SystemService
}

// NewServices crea el agregador de services.
func NewServices(d Deps) Services {
	return Services{
		Submission: NewSubmissionService(d),
		Verify:     NewVerifyService(d),
		Stats:      NewStatsService(d),
		System:     NewSystemService(d),
	}
}
