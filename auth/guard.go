package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
)

type contextKey string

const claimsContextKey contextKey = "session_claims"

// Source says where a credential was found.
type Source int

const (
	SourceNone Source = iota
	SourceHeader
	SourceCookie
)

// Guard locates and verifies the session credential of an inbound request.
type Guard struct {
	tokens     *token.Manager
	cookieName string
}

func NewGuard(tokens *token.Manager, cookieName string) *Guard {
	return &Guard{tokens: tokens, cookieName: cookieName}
}

func (g *Guard) CookieName() string {
	return g.cookieName
}

// Credential returns the bearer credential of r. An Authorization bearer
// header wins over the cookie.
func (g *Guard) Credential(r *http.Request) (string, Source) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if raw := strings.TrimSpace(parts[1]); raw != "" {
				return raw, SourceHeader
			}
		}
	}
	if c, err := r.Cookie(g.cookieName); err == nil && c.Value != "" {
		return c.Value, SourceCookie
	}
	return "", SourceNone
}

// Authenticate verifies the request's credential. It fails with
// errors.ErrAuthenticationRequired when none is present and
// errors.ErrInvalidCredential when verification fails.
func (g *Guard) Authenticate(r *http.Request) (*token.SessionClaims, Source, error) {
	raw, source := g.Credential(r)
	if source == SourceNone {
		return nil, source, apperrors.ErrAuthenticationRequired
	}
	claims, err := g.tokens.VerifySession(r.Context(), raw)
	if err != nil {
		return nil, source, fmt.Errorf("[auth Authenticate] %w", err)
	}
	return claims, source, nil
}

// WithClaims attaches verified claims to ctx
func WithClaims(ctx context.Context, claims *token.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*token.SessionClaims)
	return claims, ok && claims != nil
}
