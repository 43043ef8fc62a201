package mediaprovider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fake is an in-memory provider. Failures can be injected per operation.
type Fake struct {
	mu            sync.Mutex
	rooms         map[string]ProviderRoom
	createErr     error
	exchangeErr   error
	createCalls   int
	exchangeCalls int
	nowFunc       func() time.Time
}

var _ Client = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		rooms:   make(map[string]ProviderRoom),
		nowFunc: time.Now,
	}
}

// FailCreateRoom makes subsequent CreateRoom calls return err. Pass nil to
// restore normal behaviour.
func (f *Fake) FailCreateRoom(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *Fake) FailExchange(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeErr = err
}

func (f *Fake) CreateRoom(_ context.Context, req CreateRoomRequest) (*ProviderRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	room := ProviderRoom{ID: "prov-" + uuid.NewString(), Name: req.Name, Enabled: true}
	f.rooms[room.ID] = room
	return &room, nil
}

func (f *Fake) ExchangeToken(_ context.Context, req ExchangeRequest) (*MediaSession, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("[mediaprovider ExchangeToken] %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if _, ok := f.rooms[req.ProviderRoomID]; !ok {
		return nil, &StatusError{Op: "ExchangeToken", StatusCode: http.StatusNotFound, Body: "room not found"}
	}
	return &MediaSession{
		Token:     fmt.Sprintf("media-%s-%s-%s", req.Role, req.UserID, uuid.NewString()),
		ExpiresAt: f.nowFunc().Add(time.Hour),
	}, nil
}

// Room returns a provider room created through this fake
func (f *Fake) Room(id string) (ProviderRoom, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	return r, ok
}

func (f *Fake) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *Fake) ExchangeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls
}
