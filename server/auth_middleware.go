package server

import (
	"net/http"

	"github.com/jrsteele09/go-room-server/auth"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// RequireAuth verifies the session credential before the route runs. A
// missing credential is rejected without touching cookies; an invalid one is
// rejected and the session cookie is cleared so the client stops sending it.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, _, err := s.guard.Authenticate(r)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidCredential) {
					s.clearSessionCookie(w)
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session credential")
				}
				writeError(w, r, err)
				return
			}
			next(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		}
	}
}
