package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const managementTokenType = "management"

// ManagementClaims authenticate this server against the media provider API.
type ManagementClaims struct {
	AccessKey string `json:"access_key"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
	jwt.RegisteredClaims
}

// ManagementTokenSource mints provider management tokens. Wrap it with
// oauth2.ReuseTokenSource (NewManagementTokenSource does) so a token is reused
// until shortly before it expires.
type ManagementTokenSource struct {
	signer    Signer
	accessKey string
	expiry    time.Duration
	nowFunc   func() time.Time
}

var _ oauth2.TokenSource = (*ManagementTokenSource)(nil)

// NewManagementTokenSource returns a caching token source for provider calls.
func NewManagementTokenSource(accessKey, secret string, expiry time.Duration) (oauth2.TokenSource, error) {
	src, err := newManagementTokenSource(accessKey, secret, expiry, time.Now)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSource(nil, src), nil
}

func newManagementTokenSource(accessKey, secret string, expiry time.Duration, now func() time.Time) (*ManagementTokenSource, error) {
	signer, err := NewHMACSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("[token NewManagementTokenSource] %w", err)
	}
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	return &ManagementTokenSource{signer: signer, accessKey: accessKey, expiry: expiry, nowFunc: now}, nil
}

// Token implements oauth2.TokenSource
func (s *ManagementTokenSource) Token() (*oauth2.Token, error) {
	now := s.nowFunc()
	expiresAt := now.Add(s.expiry)
	signed, err := s.signer.Sign(ManagementClaims{
		AccessKey: s.accessKey,
		Type:      managementTokenType,
		Version:   roomAccessTokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[token ManagementTokenSource] %w", err)
	}
	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: expiresAt}, nil
}
