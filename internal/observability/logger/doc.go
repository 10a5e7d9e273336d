// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: Una sola instancia global inicializada con Init().
//   - Context Scoping: Cada request puede tener su propio logger "scoped" con campos
//     adicionales (request_id, namespace_id, etc.) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//   - Privacidad: los contactos se loguean siempre enmascarados via Contact().
//
// # Usage
//
// Inicialización (una vez en cmd/service):
//
//	logger.Init(logger.Config{
//	    Env:   "prod",             // "dev" o "prod"
//	    Level: cfg.Log.Level,      // "debug", "info", "warn", "error"
//	})
//	defer logger.L().Sync()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("certificate issued", logger.SubmissionID(id), logger.NamespaceID(ns))
//
// Sin contexto (fallback a singleton):
//
//	logger.L().Info("service started")
package logger
