package fakeentryrepo_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/presence"
	fakeentryrepo "github.com/jrsteele09/go-room-server/presence/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeEntryRepo_CreateDuplicate(t *testing.T) {
	repo := fakeentryrepo.NewFakeEntryRepo()
	ctx := context.Background()
	e := &presence.Entry{ID: "e1", RoomID: "r1", UserID: "u1", JoinedAt: time.Now(), Active: true}

	require.NoError(t, repo.Create(ctx, e))
	require.ErrorIs(t, repo.Create(ctx, e), apperrors.ErrAlreadyExists)
}

func TestFakeEntryRepo_MarkInactiveAndList(t *testing.T) {
	repo := fakeentryrepo.NewFakeEntryRepo()
	ctx := context.Background()
	t0 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &presence.Entry{ID: "e2", RoomID: "r1", UserID: "u1", JoinedAt: t0.Add(time.Minute), Active: true}))
	require.NoError(t, repo.Create(ctx, &presence.Entry{ID: "e1", RoomID: "r1", UserID: "u1", JoinedAt: t0, Active: true}))
	require.NoError(t, repo.Create(ctx, &presence.Entry{ID: "e3", RoomID: "r2", UserID: "u2", JoinedAt: t0, Active: true}))

	require.NoError(t, repo.MarkInactive(ctx, "e1", t0.Add(30*time.Second)))
	require.ErrorIs(t, repo.MarkInactive(ctx, "missing", t0), apperrors.ErrNotFound)

	all, err := repo.ListByRoom(ctx, "r1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "e1", all[0].ID)
	require.False(t, all[0].Active)
	require.NotNil(t, all[0].LeftAt)

	active, err := repo.ListByRoom(ctx, "r1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "e2", active[0].ID)
}
