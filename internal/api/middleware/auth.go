// Package middleware guards gateway routes behind the process session.
package middleware

import (
	"net/http"

	"github.com/smartroots/agribot/internal/api/response"
	"github.com/smartroots/agribot/internal/core"
	"github.com/smartroots/agribot/internal/guard"
)

// SessionSource reports the current session state.
type SessionSource interface {
	Session() core.Session
}

// RequireSession returns middleware that blocks protected routes until a
// session exists. While the startup restore check is still running it
// answers 503 so callers retry instead of being bounced to login.
func RequireSession(sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Decide(sessions.Session(), r.URL.Path)

			switch decision.Outcome {
			case guard.OutcomeLoading:
				w.Header().Set("Retry-After", "1")
				response.Error(w, http.StatusServiceUnavailable,
					core.WrapError(core.ErrSessionRestore, nil))
			case guard.OutcomeRedirect:
				w.Header().Set("Location", decision.RedirectTo)
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrUnauthorized, nil))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
