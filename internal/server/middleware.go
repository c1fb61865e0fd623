package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/otp-todo/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

// requireVerified is the session gate: requests from sessions that have not
// completed OTP verification are redirected to the login page.
func (s *Server) requireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Load(r)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("load session")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if state := sess.State(); state != domain.StateVerified {
			hlog.FromRequest(r).Debug().Stringer("state", state).Msg("session not verified")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext returns the session stored by requireVerified.
func sessionFromContext(ctx context.Context) *domain.Session {
	if sess, ok := ctx.Value(sessionKey).(*domain.Session); ok {
		return sess
	}
	return &domain.Session{}
}
