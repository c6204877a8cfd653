package handler

import (
	"net/http"
	"strings"

	"go-dataset-registry/internal/middleware"
)

// usernameFromRequest resolves the acting username for audit entries. Routes
// that reach mutating handlers are behind RequireAuth, so the fallback only
// shows up if wiring ever changes.
func usernameFromRequest(r *http.Request) string {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || strings.TrimSpace(claims.Username) == "" {
		return "anonymous"
	}
	return claims.Username
}
