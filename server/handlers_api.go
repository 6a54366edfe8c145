package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/careerlink/session-gate/token"
	"github.com/rs/zerolog"
)

// SessionStatus is the advisory view of the gate cookie returned by
// GET /api/session. Nothing in it is verified.
type SessionStatus struct {
	Authenticated    bool    `json:"isAuthenticated"`
	Role             *string `json:"role,omitempty"`
	SubjectID        *string `json:"subjectId,omitempty"`
	ExpiresAt        *int64  `json:"exp,omitempty"`
	RemainingSeconds int     `json:"remainingSeconds"`
	ExpiringSoon     bool    `json:"expiringSoon"`
}

func (s *Server) sessionStatus(rawToken string) SessionStatus {
	if rawToken == "" {
		return SessionStatus{ExpiringSoon: true}
	}

	now := s.nowFunc()
	claims := token.Decode(rawToken)
	status := SessionStatus{
		ExpiresAt:    claims.ExpiresAt,
		ExpiringSoon: token.ExpiringSoon(claims, now, s.config.GetExpiryThreshold()),
	}
	if expiry, ok := claims.ExpiryTime(); ok && expiry.After(now) {
		status.Authenticated = true
		status.Role = claims.Role
		status.SubjectID = claims.SubjectID
		status.RemainingSeconds = int(expiry.Sub(now) / time.Second)
	}
	return status
}

// SessionStatusHandler lets page scripts ask what the gate cookie says,
// e.g. to decide on a proactive refresh.
func (s *Server) SessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := s.sessionStatus(accessTokenFromCookie(r))

		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("Failed to encode session status")
		}
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
