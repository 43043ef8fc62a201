// Package mediaprovider talks to the external real-time media provider. Only
// the logical contract is modelled here: create a provider room, and exchange
// an authorised (room, identity, role) triple for a media-session token.
package mediaprovider

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
)

// Client is the provider surface the room registry depends on.
type Client interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*ProviderRoom, error)
	ExchangeToken(ctx context.Context, req ExchangeRequest) (*MediaSession, error)
}

type CreateRoomRequest struct {
	RoomID      string `json:"room_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"template_id,omitempty"`
}

type ProviderRoom struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type ExchangeRequest struct {
	ProviderRoomID string     `json:"provider_room_id"`
	RoomID         string     `json:"room_id"`
	UserID         string     `json:"user_id"`
	Role           token.Role `json:"role"`
}

type MediaSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatusError is returned when the provider answers with a non-success status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("[mediaprovider %s] provider returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("[mediaprovider %s] provider returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return apperrors.ErrExternalProvider
}

func (r ExchangeRequest) validate() error {
	if r.ProviderRoomID == "" || r.RoomID == "" || r.UserID == "" {
		return fmt.Errorf("%w: provider room, room and user are required", apperrors.ErrInvalidRequest)
	}
	return nil
}
