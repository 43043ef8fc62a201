package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/jrsteele09/go-room-server/users"
	"github.com/rs/zerolog/log"
)

// bcrypt ignores anything past 72 bytes
const maxPasswordBytes = 72

// AuthResult is returned by register, login and refresh. The credential is
// delivered by the transport (cookie and/or body), never serialised with the
// user.
type AuthResult struct {
	User       users.Profile            `json:"user"`
	Credential *token.SessionCredential `json:"-"`
}

// Service registers users and issues session credentials.
type Service struct {
	users          users.UserRepo
	tokens         *token.Manager
	passwordPolicy func(string) error
	dummyHash      string
}

type ServiceOption func(*Service)

// WithPasswordPolicy replaces the default password strength check
func WithPasswordPolicy(policy func(string) error) ServiceOption {
	return func(s *Service) {
		s.passwordPolicy = policy
	}
}

func NewService(userRepo users.UserRepo, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("[auth NewService] users repo is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("[auth NewService] token manager is required")
	}

	// compared against when the email is unknown so login timing does not
	// reveal which emails are registered
	dummy, err := users.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("[auth NewService] %w", err)
	}

	s := &Service{
		users:          userRepo,
		tokens:         tokens,
		passwordPolicy: users.ValidatePasswordStrength,
		dummyHash:      dummy,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates an identity and signs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = users.NormaliseEmail(email)
	// Only a bare addr-spec is a valid key; display names and angle brackets
	// would let one mailbox register twice.
	if addr, err := mail.ParseAddress(email); err != nil || addr.Name != "" || addr.Address != email {
		return nil, fmt.Errorf("[auth Register] %w: invalid email address", apperrors.ErrInvalidRequest)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("[auth Register] %w: password must be at most %d bytes", apperrors.ErrInvalidRequest, maxPasswordBytes)
	}
	if s.passwordPolicy != nil {
		if err := s.passwordPolicy(password); err != nil {
			return nil, fmt.Errorf("[auth Register] %w: %v", apperrors.ErrInvalidRequest, err)
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[auth Register] hash password: %w", err)
	}

	user := &users.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("[auth Register] %w: email already registered", apperrors.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("[auth Register] %w", err)
	}

	log.Info().Str("userId", user.ID).Msg("user registered")
	return s.signIn(user)
}

// Login checks the password and issues a session credential. Unknown email
// and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, users.NormaliseEmail(email))
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("[auth Login] %w", err)
		}
		users.CheckPasswordHash(password, s.dummyHash)
		return nil, apperrors.ErrInvalidLogin
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidLogin
	}
	return s.signIn(user)
}

// Refresh issues a new session credential for the identity in claims.
func (s *Service) Refresh(ctx context.Context, claims *token.SessionClaims) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("[auth Refresh] %w", err)
	}
	return s.signIn(user)
}

func (s *Service) Profile(ctx context.Context, claims *token.SessionClaims) (*users.Profile, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("[auth Profile] %w", err)
	}
	p := user.Profile()
	return &p, nil
}

// Logout revokes raw when a deny-list is configured. A credential that is
// already invalid needs no revocation.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" || !s.tokens.RevocationEnabled() {
		return nil
	}
	if err := s.tokens.Revoke(ctx, raw); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredential) {
			return nil
		}
		return fmt.Errorf("[auth Logout] %w", err)
	}
	return nil
}

func (s *Service) signIn(user *users.User) (*AuthResult, error) {
	cred, err := s.tokens.IssueSession(token.Subject{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		return nil, fmt.Errorf("[auth signIn] %w", err)
	}
	return &AuthResult{User: user.Profile(), Credential: cred}, nil
}
