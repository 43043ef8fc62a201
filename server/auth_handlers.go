package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-room-server/auth"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/users"
	"github.com/rs/zerolog/log"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User      users.Profile `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.writeAuthResult(w, http.StatusCreated, res)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.writeAuthResult(w, http.StatusOK, res)
	}
}

// LogoutHandler clears the session cookie. With a deny-list configured the
// presented credential is revoked as well.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := s.guard.Credential(r)
		if err := s.auth.Logout(r.Context(), raw); err != nil {
			log.Err(err).Msg("failed to revoke session on logout")
		}
		s.clearSessionCookie(w)
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
	}
}

func (s *Server) CheckAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, r, apperrors.ErrAuthenticationRequired)
			return
		}
		profile, err := s.auth.Profile(r.Context(), claims)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]users.Profile{"user": *profile})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, r, apperrors.ErrAuthenticationRequired)
			return
		}
		res, err := s.auth.Refresh(r.Context(), claims)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.writeAuthResult(w, http.StatusOK, res)
	}
}

func (s *Server) writeAuthResult(w http.ResponseWriter, status int, res *auth.AuthResult) {
	s.setSessionCookie(w, res.Credential.Token, res.Credential.ExpiresAt)
	writeJSON(w, status, authResponse{
		User:      res.User,
		Token:     res.Credential.Token,
		ExpiresAt: res.Credential.ExpiresAt,
	})
}
