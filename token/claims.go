package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the media-session role carried by a room-access credential.
type Role string

const (
	// RoleHost is granted to the room owner
	RoleHost Role = "host"
	// RoleGuest is granted to everyone else
	RoleGuest Role = "guest"
)

// ParseRole maps a client supplied role onto a known role. Unknown values
// map to RoleGuest; the result is advisory only.
func ParseRole(s string) Role {
	if Role(s) == RoleHost {
		return RoleHost
	}
	return RoleGuest
}

// SessionClaims are the claims of a login session credential.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// RoomAccessClaims scope a credential to exactly one room, identity and role.
type RoomAccessClaims struct {
	AccessKey string `json:"access_key,omitempty"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
	jwt.RegisteredClaims
}

// SessionCredential is a freshly minted session token.
type SessionCredential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	JTI       string    `json:"-"`
}

// RoomAccessCredential is a freshly minted room-access token.
type RoomAccessCredential struct {
	Token     string    `json:"token"`
	RoomID    string    `json:"roomId"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	JTI       string    `json:"-"`
}

// Subject is the identity a session credential is issued for.
type Subject struct {
	ID    string
	Email string
	Name  string
}

// RoomScope is the part of a room needed to derive a role.
type RoomScope struct {
	RoomID  string
	OwnerID string
}
