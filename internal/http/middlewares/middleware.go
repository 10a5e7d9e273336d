package middlewares

import "net/http"

// Middleware es un decorador de http.Handler. El router los aplica en
// orden con chi.Use.
type Middleware func(http.Handler) http.Handler
