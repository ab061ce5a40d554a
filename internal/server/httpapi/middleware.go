package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/logging"
	"github.com/dmitrijs2005/expensehub/internal/server/auth"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

// OwnerID returns the owner authenticated by AuthMiddleware, or "".
func OwnerID(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerIDKey).(string)
	return ownerID
}

func withOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// AuthMiddleware requires "Authorization: Bearer <jwt>" and stores the
// token's owner in the request context.
func AuthMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get(common.AuthorizationHeaderName)
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != common.BearerScheme || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			ownerID, err := auth.GetOwnerIDFromToken(token, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withOwnerID(r.Context(), ownerID)))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ownerCapture lets the logger see the owner set by an inner middleware.
type ownerCapture struct {
	ownerID string
}

const ownerCaptureKey contextKey = "ownerCapture"

// LoggerMiddleware logs one line per request with its status and duration.
func LoggerMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			capture := &ownerCapture{}
			ctx := context.WithValue(r.Context(), ownerCaptureKey, capture)

			next.ServeHTTP(rw, r.WithContext(ctx))

			ownerID := capture.ownerID
			if ownerID == "" {
				ownerID = "anonymous"
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration", time.Since(start),
				"owner", ownerID,
			}
			if rw.statusCode >= http.StatusInternalServerError {
				logger.Error(ctx, "request", args...)
				return
			}
			logger.Info(ctx, "request", args...)
		})
	}
}

// recordOwner publishes the authenticated owner to LoggerMiddleware.
func recordOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := r.Context().Value(ownerCaptureKey).(*ownerCapture); ok {
			c.ownerID = OwnerID(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}
