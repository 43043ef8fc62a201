package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
)

const (
	defaultSessionExpiry    = 24 * time.Hour
	defaultRoomAccessExpiry = 24 * time.Hour
	roomAccessTokenType     = "app"
	roomAccessTokenVersion  = 2
)

// Manager issues and verifies session credentials and room-access
// credentials. It holds no per-request state.
type Manager struct {
	sessionSigner    Signer
	roomSigner       Signer
	issuer           string
	accessKey        string
	sessionExpiry    time.Duration
	roomAccessExpiry time.Duration
	revokedCache     RevokedTokenCache
	nowFunc          func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

// WithAccessKey embeds the provider app access key in room-access credentials
func WithAccessKey(key string) ManagerOption {
	return func(m *Manager) {
		m.accessKey = key
	}
}

// WithSessionExpiry caps the session lifetime. Values above 24h are clamped.
func WithSessionExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sessionExpiry = d
	}
}

// WithRoomAccessExpiry caps the room-access lifetime. Values above 24h are clamped.
func WithRoomAccessExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.roomAccessExpiry = d
	}
}

// WithRevokedTokenCache enables the logout deny-list.
func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

// NewManager builds a Manager. Missing secrets are reported as
// errors.ErrConfiguration so the caller can refuse to start.
func NewManager(sessionSecret, roomSecret string, options ...ManagerOption) (*Manager, error) {
	sessionSigner, err := NewHMACSigner(sessionSecret)
	if err != nil {
		return nil, fmt.Errorf("[token NewManager] session signer: %w", err)
	}
	roomSigner, err := NewHMACSigner(roomSecret)
	if err != nil {
		return nil, fmt.Errorf("[token NewManager] room signer: %w", err)
	}

	m := &Manager{
		sessionSigner: sessionSigner,
		roomSigner:    roomSigner,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(m)
	}

	if m.sessionExpiry <= 0 || m.sessionExpiry > defaultSessionExpiry {
		m.sessionExpiry = defaultSessionExpiry
	}
	if m.roomAccessExpiry <= 0 || m.roomAccessExpiry > defaultRoomAccessExpiry {
		m.roomAccessExpiry = defaultRoomAccessExpiry
	}
	return m, nil
}

// SessionExpiry is the lifetime given to new session credentials
func (m *Manager) SessionExpiry() time.Duration {
	return m.sessionExpiry
}

// IssueSession mints a session credential for the identity.
func (m *Manager) IssueSession(subject Subject) (*SessionCredential, error) {
	if subject.ID == "" {
		return nil, fmt.Errorf("[token IssueSession] %w: missing identity id", apperrors.ErrInvalidRequest)
	}

	now := m.now()
	expiresAt := now.Add(m.sessionExpiry)
	jti := uuid.New().String()

	claims := SessionClaims{
		UserID: subject.ID,
		Email:  subject.Email,
		Name:   subject.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := m.sessionSigner.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("[token IssueSession] %w", err)
	}
	return &SessionCredential{Token: signed, ExpiresAt: expiresAt, JTI: jti}, nil
}

// VerifySession checks signature, algorithm, expiry and (when enabled) the
// deny-list. Every failure wraps errors.ErrInvalidCredential.
func (m *Manager) VerifySession(ctx context.Context, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(raw, claims, m.sessionSigner); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing identity", apperrors.ErrInvalidCredential)
	}
	if m.revokedCache != nil && claims.ID != "" {
		revoked, err := m.revokedCache.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("[token VerifySession] deny-list: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", apperrors.ErrInvalidCredential)
		}
	}
	return claims, nil
}

// Revoke adds a session credential to the deny-list until it expires. It is a
// no-op when no deny-list is configured.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	if m.revokedCache == nil {
		return nil
	}
	claims := &SessionClaims{}
	if err := m.parse(raw, claims, m.sessionSigner); err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return m.revokedCache.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

// RevocationEnabled reports whether a deny-list is configured
func (m *Manager) RevocationEnabled() bool {
	return m.revokedCache != nil
}

// DeriveRole returns RoleHost iff identityID owns the room. The requested
// role never influences the result.
func DeriveRole(identityID string, room RoomScope, _ Role) Role {
	if identityID != "" && identityID == room.OwnerID {
		return RoleHost
	}
	return RoleGuest
}

// IssueRoomAccess mints a credential scoped to one room, identity and role.
func (m *Manager) IssueRoomAccess(identityID string, room RoomScope, requested Role) (*RoomAccessCredential, error) {
	if identityID == "" || room.RoomID == "" {
		return nil, fmt.Errorf("[token IssueRoomAccess] %w: identity and room are required", apperrors.ErrInvalidRequest)
	}

	role := DeriveRole(identityID, room, requested)
	now := m.now()
	expiresAt := now.Add(m.roomAccessExpiry)
	jti := uuid.New().String()

	claims := RoomAccessClaims{
		AccessKey: m.accessKey,
		RoomID:    room.RoomID,
		UserID:    identityID,
		Role:      role,
		Type:      roomAccessTokenType,
		Version:   roomAccessTokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := m.roomSigner.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("[token IssueRoomAccess] %w", err)
	}
	return &RoomAccessCredential{
		Token:     signed,
		RoomID:    room.RoomID,
		Role:      role,
		ExpiresAt: expiresAt,
		JTI:       jti,
	}, nil
}

// VerifyRoomAccess validates a room-access credential the way the media
// provider does.
func (m *Manager) VerifyRoomAccess(raw string) (*RoomAccessClaims, error) {
	claims := &RoomAccessClaims{}
	if err := m.parse(raw, claims, m.roomSigner); err != nil {
		return nil, err
	}
	if claims.RoomID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%w: room-access credential is missing its scope", apperrors.ErrInvalidCredential)
	}
	return claims, nil
}

func (m *Manager) parse(raw string, claims jwt.Claims, signer Signer) error {
	if raw == "" {
		return fmt.Errorf("%w: empty token", apperrors.ErrInvalidCredential)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(raw, claims, signer.GetVerificationKey)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidCredential, err)
	}
	if !token.Valid {
		return fmt.Errorf("%w: token not valid", apperrors.ErrInvalidCredential)
	}
	return nil
}

func (m *Manager) now() time.Time {
	return m.nowFunc()
}
