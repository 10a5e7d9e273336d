// Package controllers adapta HTTP a los services: parseo de requests,
// mapeo de errores y serialización de respuestas.
package controllers

import (
	svc "github.com/dropDatabas3/cryptoqr/internal/http/services"
)

// Controllers agrupa todos los controllers de la API.
type Controllers struct {
	Submission *SubmissionController
	Verify     *VerifyController
	Keys       *KeysController
	Stats      *StatsController
	System     *SystemController
}

// Config son los parámetros HTTP que no pertenecen a ningún service.
type Config struct {
	MaxUploadBytes int64
}

// NewControllers crea el agregador de controllers.
func NewControllers(s svc.Services, cfg Config) *Controllers {
	return &Controllers{
		Submission: NewSubmissionController(s.Submission, cfg.MaxUploadBytes),
		Verify:     NewVerifyController(s.Verify, cfg.MaxUploadBytes),
		Keys:       NewKeysController(s.Verify),
		Stats:      NewStatsController(s.Stats),
		System:     NewSystemController(s.System),
	}
}
