package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxAdminSubKey  ctxKey = "admin_sub"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func setAdminSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxAdminSubKey, sub)
}

// GetAdminSubject obtiene el subject del token admin validado, si lo hay.
func GetAdminSubject(ctx context.Context) string {
	if v := ctx.Value(ctxAdminSubKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
