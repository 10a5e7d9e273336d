// Package metrics registra los contadores de dominio en prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	certificatesIssuedTotal *prometheus.CounterVec
	verificationsTotal      *prometheus.CounterVec
	duplicatesTotal         *prometheus.CounterVec
)

// Register crea y registra los contadores de dominio. Idempotente.
func Register(registry prometheus.Registerer) error {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	var regErr error
	once.Do(func() {
		certificatesIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificados emitidos por namespace",
		}, []string{"namespace"})

		verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Verificaciones por resultado (valid|invalid|malformed)",
		}, []string{"result"})

		duplicatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duplicate_submissions_total",
			Help: "Submissions rechazadas por duplicado, por namespace",
		}, []string{"namespace"})

		for _, c := range []prometheus.Collector{
			certificatesIssuedTotal, verificationsTotal, duplicatesTotal,
		} {
			if err := registry.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					regErr = err
					return
				}
			}
		}
	})
	return regErr
}

// CountIssued registra un certificado emitido.
func CountIssued(namespace string) {
	if certificatesIssuedTotal != nil {
		certificatesIssuedTotal.WithLabelValues(namespace).Inc()
	}
}

// CountVerification registra una verificación por resultado.
func CountVerification(result string) {
	if verificationsTotal != nil {
		verificationsTotal.WithLabelValues(result).Inc()
	}
}

// CountDuplicate registra un rechazo por duplicado.
func CountDuplicate(namespace string) {
	if duplicatesTotal != nil {
		duplicatesTotal.WithLabelValues(namespace).Inc()
	}
}
