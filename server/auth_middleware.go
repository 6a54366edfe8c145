package server

import (
	"context"
	"net/http"

	"github.com/careerlink/session-gate/gate"
	"github.com/careerlink/session-gate/token"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the claims decoded by the route gate
	ContextKeyClaims ContextKey = "claims"
)

// RequireRouteAuthorization runs the route gate before the page handler.
// It reads only the accessToken cookie and never calls the identity service:
// it spares users pages they cannot use, while the REST API still checks
// every request on its own.
func (s *Server) RequireRouteAuthorization() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			decision := s.gate.Decide(r.URL.Path, r.URL.RawQuery, accessTokenFromCookie(r))

			if !decision.Allowed() {
				zerolog.Ctx(r.Context()).Debug().
					Str("path", r.URL.Path).
					Stringer("outcome", decision.Outcome).
					Str("location", decision.Location).
					Msg("route gate redirect")
				redirectSuccess(w, r, decision.Location)
				return
			}

			if decision.Claims.Valid() {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, decision.Claims))
			}
			next(w, r)
		}
	}
}

// ClaimsFromContext returns the claims the gate decoded for this request.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(token.Claims)
	return claims, ok
}

// Gate exposes the route gate, e.g. for building sign-in links.
func (s *Server) Gate() *gate.Gate {
	return s.gate
}

func accessTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
