package rooms

import "context"

// RoomRepo persists rooms. Create fails with errors.ErrAlreadyExists on a
// duplicate room id; lookups and updates fail with errors.ErrNotFound.
type RoomRepo interface {
	Create(ctx context.Context, room *Room) error
	List(ctx context.Context) ([]*Room, error)
	GetByRoomID(ctx context.Context, roomID string) (*Room, error)
	UpdateStatus(ctx context.Context, roomID string, update StatusUpdate) error
	SetProvider(ctx context.Context, roomID, providerRoomID string, status ProviderStatus) error
	ListByProviderStatus(ctx context.Context, status ProviderStatus) ([]*Room, error)
}
