package presence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
)

type MessageType string

const (
	TypeJoin              MessageType = "join"
	TypeLeave             MessageType = "leave"
	TypeParticipantJoined MessageType = "participant_joined"
	TypeParticipantLeft   MessageType = "participant_left"
	TypeError             MessageType = "error"
)

// Inbound is a message received from a presence channel.
type Inbound struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
	UserID string      `json:"userId"`
	Name   string      `json:"name,omitempty"`
}

type Participant struct {
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
	Active   bool      `json:"active"`
}

// Outbound is a message pushed to observers.
type Outbound struct {
	Type        MessageType  `json:"type"`
	Participant *Participant `json:"participant,omitempty"`
	UserID      string       `json:"userId,omitempty"`
	RoomID      string       `json:"roomId,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// DecodeInbound parses and validates a raw channel message.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: malformed message", apperrors.ErrInvalidRequest)
	}
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.UserID = strings.TrimSpace(in.UserID)

	switch in.Type {
	case TypeJoin, TypeLeave:
	default:
		return Inbound{}, fmt.Errorf("%w: unknown message type %q", apperrors.ErrInvalidRequest, in.Type)
	}
	if in.RoomID == "" || in.UserID == "" {
		return Inbound{}, fmt.Errorf("%w: roomId and userId are required", apperrors.ErrInvalidRequest)
	}
	return in, nil
}

func joinedMessage(p Participant) Outbound {
	return Outbound{Type: TypeParticipantJoined, Participant: &p}
}

func leftMessage(roomID, userID string) Outbound {
	return Outbound{Type: TypeParticipantLeft, UserID: userID, RoomID: roomID}
}

func errorMessage(err error) Outbound {
	return Outbound{Type: TypeError, Message: err.Error()}
}
