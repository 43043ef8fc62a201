package fakeroomrepo

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/rooms"
)

var _ rooms.RoomRepo = (*FakeRoomRepo)(nil)

type storedRoom struct {
	room rooms.Room
	seq  int
}

type FakeRoomRepo struct {
	rooms map[string]*storedRoom
	seq   int
	lock  sync.RWMutex
}

func NewFakeRoomRepo() rooms.RoomRepo {
	return &FakeRoomRepo{
		rooms: make(map[string]*storedRoom),
	}
}

func (rr *FakeRoomRepo) Create(_ context.Context, room *rooms.Room) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.rooms[room.RoomID]; ok {
		return apperrors.ErrAlreadyExists
	}
	rr.seq++
	rr.rooms[room.RoomID] = &storedRoom{room: *room, seq: rr.seq}
	return nil
}

// List is newest first; rooms created at the same instant keep reverse
// insertion order.
func (rr *FakeRoomRepo) List(_ context.Context) ([]*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	stored := make([]*storedRoom, 0, len(rr.rooms))
	for _, s := range rr.rooms {
		stored = append(stored, s)
	}
	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.room.CreatedAt.Equal(b.room.CreatedAt) {
			return a.room.CreatedAt.After(b.room.CreatedAt)
		}
		return a.seq > b.seq
	})

	list := make([]*rooms.Room, 0, len(stored))
	for _, s := range stored {
		r := s.room
		list = append(list, &r)
	}
	return list, nil
}

func (rr *FakeRoomRepo) GetByRoomID(_ context.Context, roomID string) (*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	s, ok := rr.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	r := s.room
	return &r, nil
}

func (rr *FakeRoomRepo) UpdateStatus(_ context.Context, roomID string, update rooms.StatusUpdate) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	s, ok := rr.rooms[roomID]
	if !ok {
		return apperrors.ErrNotFound
	}
	update.Apply(&s.room)
	return nil
}

func (rr *FakeRoomRepo) SetProvider(_ context.Context, roomID, providerRoomID string, status rooms.ProviderStatus) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	s, ok := rr.rooms[roomID]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.room.ProviderRoomID = providerRoomID
	s.room.ProviderStatus = status
	return nil
}

func (rr *FakeRoomRepo) ListByProviderStatus(_ context.Context, status rooms.ProviderStatus) ([]*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	list := make([]*rooms.Room, 0)
	for _, s := range rr.rooms {
		if s.room.ProviderStatus == status {
			r := s.room
			list = append(list, &r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
