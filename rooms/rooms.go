package rooms

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-room-server/token"
	"github.com/jrsteele09/go-room-server/users"
)

// roomIDBytes gives 96 bits of randomness per room id
const roomIDBytes = 12

// ProviderStatus tracks the media-provider leg of room creation.
type ProviderStatus string

const (
	ProviderPending ProviderStatus = "pending"
	ProviderReady   ProviderStatus = "ready"
	ProviderFailed  ProviderStatus = "failed"
)

type Room struct {
	RoomID             string         `json:"roomId"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	OwnerID            string         `json:"createdBy"`
	CreatedAt          time.Time      `json:"createdAt"`
	Active             bool           `json:"active"`
	Recording          bool           `json:"isRecording"`
	RecordingStartedAt *time.Time     `json:"recordingStartedAt,omitempty"`
	RecordingStoppedAt *time.Time     `json:"recordingStoppedAt,omitempty"`
	ProviderRoomID     string         `json:"providerRoomId,omitempty"`
	ProviderStatus     ProviderStatus `json:"providerStatus"`
}

// RoomView is a room with the public projection of its owner.
type RoomView struct {
	Room
	Owner users.Owner `json:"owner"`
}

// StatusUpdate changes only the fields that are non-nil.
type StatusUpdate struct {
	Active             *bool
	Recording          *bool
	RecordingStartedAt *time.Time
	RecordingStoppedAt *time.Time
}

func (u StatusUpdate) Apply(r *Room) {
	if u.Active != nil {
		r.Active = *u.Active
	}
	if u.Recording != nil {
		r.Recording = *u.Recording
	}
	if u.RecordingStartedAt != nil {
		t := *u.RecordingStartedAt
		r.RecordingStartedAt = &t
	}
	if u.RecordingStoppedAt != nil {
		t := *u.RecordingStoppedAt
		r.RecordingStoppedAt = &t
	}
}

// Usable reports whether participants can be admitted: the room is active and
// its provider leg has been confirmed.
func (r *Room) Usable() bool {
	return r.Active && r.ProviderStatus == ProviderReady && r.ProviderRoomID != ""
}

func (r *Room) Scope() token.RoomScope {
	return token.RoomScope{RoomID: r.RoomID, OwnerID: r.OwnerID}
}

func (r *Room) IsOwner(userID string) bool {
	return userID != "" && userID == r.OwnerID
}

// NewRoomID returns a hex-encoded 96-bit random identifier.
func NewRoomID() (string, error) {
	b := make([]byte, roomIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[rooms NewRoomID] %w", err)
	}
	return hex.EncodeToString(b), nil
}
