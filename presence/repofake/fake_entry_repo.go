package fakeentryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/presence"
)

var _ presence.EntryRepo = (*FakeEntryRepo)(nil)

type FakeEntryRepo struct {
	entries map[string]*presence.Entry
	lock    sync.RWMutex
}

func NewFakeEntryRepo() presence.EntryRepo {
	return &FakeEntryRepo{
		entries: make(map[string]*presence.Entry),
	}
}

func (er *FakeEntryRepo) Create(_ context.Context, entry *presence.Entry) error {
	er.lock.Lock()
	defer er.lock.Unlock()

	if _, ok := er.entries[entry.ID]; ok {
		return apperrors.ErrAlreadyExists
	}
	stored := *entry
	er.entries[entry.ID] = &stored
	return nil
}

func (er *FakeEntryRepo) MarkInactive(_ context.Context, entryID string, leftAt time.Time) error {
	er.lock.Lock()
	defer er.lock.Unlock()

	e, ok := er.entries[entryID]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Active = false
	e.LeftAt = &leftAt
	return nil
}

func (er *FakeEntryRepo) ListByRoom(_ context.Context, roomID string, activeOnly bool) ([]*presence.Entry, error) {
	er.lock.RLock()
	defer er.lock.RUnlock()

	list := make([]*presence.Entry, 0)
	for _, e := range er.entries {
		if e.RoomID != roomID || (activeOnly && !e.Active) {
			continue
		}
		c := *e
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].JoinedAt.Before(list[j].JoinedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}
