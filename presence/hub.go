// Package presence tracks who is in which room and pushes join/leave events
// to connected observers.
package presence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultQueueSize     = 64
	implicitLeaveTimeout = 5 * time.Second
)

// State is the lifecycle of one presence connection.
type State int

const (
	StateConnected State = iota
	StateJoined
	StateLeft
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID string
	Name   string
}

type membership struct {
	entryID     string
	participant Participant
}

// Observer is one connected presence channel. Its outbound queue is drained by
// the transport; when the queue is full new events are dropped for this
// observer only.
type Observer struct {
	id       string
	identity Identity
	send     chan Outbound
	dropped  atomic.Int64

	// guarded by Hub.mu
	state State
	rooms map[string]membership
}

func (o *Observer) ID() string { return o.id }

func (o *Observer) Identity() Identity { return o.identity }

// Messages is closed when the observer is disconnected.
func (o *Observer) Messages() <-chan Outbound { return o.send }

// Dropped counts events discarded because the queue was full.
func (o *Observer) Dropped() int64 { return o.dropped.Load() }

// RoomValidator reports errors.ErrNotFound (or another error) for rooms that
// cannot be joined.
type RoomValidator func(ctx context.Context, roomID string) error

type Stats struct {
	Observers int   `json:"observers"`
	Rooms     int   `json:"rooms"`
	Dropped   int64 `json:"dropped"`
}

// Hub owns the observer set. A single mutex serialises connect, disconnect,
// join and leave together with the enqueue of the resulting events, so every
// observer sees events in the order they were applied.
type Hub struct {
	mu        sync.Mutex
	observers map[string]*Observer
	rooms     map[string]map[string]*Observer
	entries   EntryRepo
	validate  RoomValidator
	queueSize int
	nowFunc   func() time.Time
	dropped   atomic.Int64
	closed    bool
}

type HubOption func(*Hub)

func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithRoomValidator(v RoomValidator) HubOption {
	return func(h *Hub) {
		h.validate = v
	}
}

func WithNowFunc(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.nowFunc = now
	}
}

func NewHub(entries EntryRepo, opts ...HubOption) *Hub {
	h := &Hub{
		observers: make(map[string]*Observer),
		rooms:     make(map[string]map[string]*Observer),
		entries:   entries,
		queueSize: defaultQueueSize,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect registers a new observer for an authenticated identity.
func (h *Hub) Connect(identity Identity) (*Observer, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("[presence Connect] %w", apperrors.ErrAuthenticationRequired)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("[presence Connect] hub is closed")
	}

	o := &Observer{
		id:       uuid.NewString(),
		identity: identity,
		send:     make(chan Outbound, h.queueSize),
		state:    StateConnected,
		rooms:    make(map[string]membership),
	}
	h.observers[o.id] = o
	return o, nil
}

// Handle applies one inbound message. Failures are also reported to the
// observer as an error message.
func (h *Hub) Handle(ctx context.Context, o *Observer, in Inbound) error {
	var err error
	switch in.Type {
	case TypeJoin:
		err = h.Join(ctx, o, in.RoomID, in.UserID, in.Name)
	case TypeLeave:
		err = h.Leave(ctx, o, in.RoomID, in.UserID)
	default:
		err = fmt.Errorf("%w: unknown message type %q", apperrors.ErrInvalidRequest, in.Type)
	}
	if err != nil {
		h.Notify(o, errorMessage(publicError(err)))
	}
	return err
}

// Join adds the observer to a room, records a presence entry and tells every
// observer in the room, including the joiner. The entry is written before the
// hub lock is taken; only the membership change and the enqueue are
// serialised.
func (h *Hub) Join(ctx context.Context, o *Observer, roomID, userID, name string) error {
	if roomID == "" {
		return fmt.Errorf("[presence Join] %w: roomId is required", apperrors.ErrInvalidRequest)
	}
	if userID != o.identity.UserID {
		return fmt.Errorf("[presence Join] %w: userId does not match the authenticated user", apperrors.ErrForbidden)
	}
	if name == "" {
		name = o.identity.Name
	}
	if h.validate != nil {
		if err := h.validate(ctx, roomID); err != nil {
			return fmt.Errorf("[presence Join] %w", err)
		}
	}

	joined, err := h.membershipState(o, roomID)
	if err != nil || joined {
		return err
	}

	now := h.nowFunc().UTC()
	entry := &Entry{
		ID:       NewEntryID(now),
		RoomID:   roomID,
		UserID:   userID,
		Name:     name,
		JoinedAt: now,
		Active:   true,
	}
	if err := h.entries.Create(ctx, entry); err != nil {
		return fmt.Errorf("[presence Join] %w", err)
	}

	applied, err := h.applyJoin(o, entry)
	if !applied {
		// The connection closed or joined this room while the entry was written.
		h.closeEntries(o.identity.UserID, []pendingClose{{roomID: roomID, entryID: entry.ID}})
	}
	return err
}

func (h *Hub) membershipState(o *Observer, roomID string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o.state == StateDisconnected {
		return false, fmt.Errorf("[presence Join] %w: connection closed", apperrors.ErrInvalidRequest)
	}
	_, ok := o.rooms[roomID]
	return ok, nil
}

func (h *Hub) applyJoin(o *Observer, entry *Entry) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if o.state == StateDisconnected {
		return false, fmt.Errorf("[presence Join] %w: connection closed", apperrors.ErrInvalidRequest)
	}
	if _, ok := o.rooms[entry.RoomID]; ok {
		return false, nil
	}

	members, ok := h.rooms[entry.RoomID]
	if !ok {
		members = make(map[string]*Observer)
		h.rooms[entry.RoomID] = members
	}
	members[o.id] = o
	o.rooms[entry.RoomID] = membership{entryID: entry.ID, participant: entry.Participant()}
	o.state = StateJoined

	log.Debug().Str("roomId", entry.RoomID).Str("userId", entry.UserID).Msg("participant joined")
	h.broadcastLocked(entry.RoomID, joinedMessage(entry.Participant()))
	return true, nil
}

// Leave removes the observer from a room and tells the leaver and the
// remaining observers. The entry is marked inactive after the hub lock is
// released; a failed write is logged since the leave has already happened.
func (h *Hub) Leave(ctx context.Context, o *Observer, roomID, userID string) error {
	if userID != o.identity.UserID {
		return fmt.Errorf("[presence Leave] %w: userId does not match the authenticated user", apperrors.ErrForbidden)
	}

	h.mu.Lock()
	if _, ok := o.rooms[roomID]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("[presence Leave] %w: not joined to room %s", apperrors.ErrInvalidRequest, roomID)
	}
	h.enqueueLocked(o, leftMessage(roomID, userID))
	pending := h.leaveLocked(o, roomID)
	h.mu.Unlock()

	h.markInactive(ctx, userID, pending)
	return nil
}

type pendingClose struct {
	roomID  string
	entryID string
}

// leaveLocked applies a leave in memory and returns the entry to close.
func (h *Hub) leaveLocked(o *Observer, roomID string) pendingClose {
	m := o.rooms[roomID]
	delete(o.rooms, roomID)
	if members, ok := h.rooms[roomID]; ok {
		delete(members, o.id)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if len(o.rooms) == 0 && o.state == StateJoined {
		o.state = StateLeft
	}

	log.Debug().Str("roomId", roomID).Str("userId", o.identity.UserID).Msg("participant left")
	h.broadcastLocked(roomID, leftMessage(roomID, o.identity.UserID))
	return pendingClose{roomID: roomID, entryID: m.entryID}
}

func (h *Hub) markInactive(ctx context.Context, userID string, p pendingClose) {
	if err := h.entries.MarkInactive(ctx, p.entryID, h.nowFunc().UTC()); err != nil {
		log.Err(err).Str("roomId", p.roomID).Str("userId", userID).Str("entryId", p.entryID).
			Msg("failed to mark presence entry inactive")
	}
}

// closeEntries marks entries inactive on a context that is independent of
// any single request.
func (h *Hub) closeEntries(userID string, pending []pendingClose) {
	if len(pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), implicitLeaveTimeout)
	defer cancel()
	for _, p := range pending {
		h.markInactive(ctx, userID, p)
	}
}

// Disconnect releases an observer. Any room it is still in is left
// implicitly. Calling it more than once is harmless.
func (h *Hub) Disconnect(o *Observer) {
	h.mu.Lock()
	pending := h.disconnectLocked(o)
	h.mu.Unlock()

	h.closeEntries(o.identity.UserID, pending)
}

func (h *Hub) disconnectLocked(o *Observer) []pendingClose {
	if o.state == StateDisconnected {
		return nil
	}

	pending := make([]pendingClose, 0, len(o.rooms))
	for roomID := range o.rooms {
		pending = append(pending, h.leaveLocked(o, roomID))
	}

	o.state = StateDisconnected
	delete(h.observers, o.id)
	close(o.send)
	return pending
}

// Notify queues a message for a single observer.
func (h *Hub) Notify(o *Observer, msg Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enqueueLocked(o, msg)
}

func (h *Hub) broadcastLocked(roomID string, msg Outbound) {
	for _, o := range h.rooms[roomID] {
		h.enqueueLocked(o, msg)
	}
}

func (h *Hub) enqueueLocked(o *Observer, msg Outbound) {
	if o.state == StateDisconnected {
		return
	}
	select {
	case o.send <- msg:
	default:
		o.dropped.Add(1)
		h.dropped.Add(1)
		log.Warn().Str("observer", o.id).Str("type", string(msg.Type)).Msg("presence queue full, event dropped")
	}
}

// Snapshot lists the participants currently in a room, oldest join first.
func (h *Hub) Snapshot(roomID string) []Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	participants := make([]Participant, 0, len(h.rooms[roomID]))
	for _, o := range h.rooms[roomID] {
		participants = append(participants, o.rooms[roomID].participant)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants
}

// History returns the stored entries for a room, including inactive ones
// unless activeOnly is set.
func (h *Hub) History(ctx context.Context, roomID string, activeOnly bool) ([]*Entry, error) {
	entries, err := h.entries.ListByRoom(ctx, roomID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("[presence History] %w", err)
	}
	return entries, nil
}

func (h *Hub) State(o *Observer) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return o.state
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Observers: len(h.observers), Rooms: len(h.rooms), Dropped: h.dropped.Load()}
}

// Close disconnects every observer and refuses new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	pending := make(map[string][]pendingClose)
	for _, o := range h.observers {
		userID := o.identity.UserID
		pending[userID] = append(pending[userID], h.disconnectLocked(o)...)
	}
	h.mu.Unlock()

	for userID, p := range pending {
		h.closeEntries(userID, p)
	}
}

// publicError keeps client-facing failures and strips the "[component op]"
// prefixes; anything else becomes a generic error.
func publicError(err error) error {
	for _, known := range []error{apperrors.ErrInvalidRequest, apperrors.ErrForbidden, apperrors.ErrNotFound, apperrors.ErrRoomUnavailable} {
		if apperrors.Is(err, known) {
			msg := err.Error()
			for strings.HasPrefix(msg, "[") {
				i := strings.Index(msg, "] ")
				if i < 0 {
					break
				}
				msg = msg[i+2:]
			}
			return apperrors.New(msg)
		}
	}
	return apperrors.New("internal error")
}
