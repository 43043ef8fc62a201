package presence

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry records one identity's membership of one room for one join. Entries
// are never deleted; leaving marks them inactive.
type Entry struct {
	ID       string     `json:"id"`
	RoomID   string     `json:"roomId"`
	UserID   string     `json:"userId"`
	Name     string     `json:"name"`
	JoinedAt time.Time  `json:"joinedAt"`
	LeftAt   *time.Time `json:"leftAt,omitempty"`
	Active   bool       `json:"active"`
}

// NewEntryID returns a ULID for t, so ids sort by join time.
func NewEntryID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

func (e *Entry) Participant() Participant {
	return Participant{
		RoomID:   e.RoomID,
		UserID:   e.UserID,
		Name:     e.Name,
		JoinedAt: e.JoinedAt,
		Active:   e.Active,
	}
}

// EntryRepo persists presence entries. MarkInactive fails with
// errors.ErrNotFound for an unknown entry id.
type EntryRepo interface {
	Create(ctx context.Context, entry *Entry) error
	MarkInactive(ctx context.Context, entryID string, leftAt time.Time) error
	ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]*Entry, error)
}
