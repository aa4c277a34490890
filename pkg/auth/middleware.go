package auth

import (
	"context"
	"net/http"
	"strings"

	"dexchat/pkg/logger"
	"dexchat/pkg/utils"
)

type ctxOwnerKey struct{}

// RequireOwner verifies the Authorization bearer token and injects the
// verified owner id into the request context. Requests without a valid
// token are rejected before any handler logic runs.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			logger.Warn("missing_bearer_token", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		owner, err := VerifyToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			logger.Warn("token_rejected", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
			utils.JSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxOwnerKey{}, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFromContext returns the verified owner id or empty string.
func OwnerFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxOwnerKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
