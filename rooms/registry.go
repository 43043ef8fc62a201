package rooms

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/internal/utils"
	"github.com/jrsteele09/go-room-server/mediaprovider"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/jrsteele09/go-room-server/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultIDAttempts     = 5
	defaultReconcileGrace = time.Minute
	maxRoomNameLength     = 200
)

// ProviderError reports that a room was stored locally but the provider leg
// failed. RoomID identifies the local record so an operator or a reconcile
// pass can find it.
type ProviderError struct {
	RoomID string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("room %s created locally but media provider failed: %v", e.RoomID, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{apperrors.ErrExternalProvider, e.Err}
}

type CreateOptions struct {
	Description string
	TemplateID  string
}

// ReconcileReport lists the rooms a reconcile pass looked at, by outcome.
type ReconcileReport struct {
	Checked      int      `json:"checked"`
	Confirmed    []string `json:"confirmed"`
	StillFailing []string `json:"stillFailing"`
}

// JoinResult is everything a client needs to enter a room's media session.
type JoinResult struct {
	Access *token.RoomAccessCredential `json:"access"`
	Media  *mediaprovider.MediaSession `json:"media"`
}

// Registry is the room service. It owns the create saga across the local
// store and the media provider.
type Registry struct {
	rooms          RoomRepo
	users          users.UserRepo
	tokens         *token.Manager
	provider       mediaprovider.Client
	newID          func() (string, error)
	idAttempts     int
	reconcileGrace time.Duration
	nowFunc        func() time.Time
	reconcileGroup singleflight.Group
}

type RegistryOption func(*Registry)

func WithRoomIDGenerator(fn func() (string, error)) RegistryOption {
	return func(r *Registry) {
		r.newID = fn
	}
}

func WithRegistryNowFunc(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowFunc = now
	}
}

// WithReconcileGrace skips pending rooms younger than d, so a reconcile pass
// does not race a create that is still in flight.
func WithReconcileGrace(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.reconcileGrace = d
	}
}

func NewRegistry(roomRepo RoomRepo, userRepo users.UserRepo, tokens *token.Manager, provider mediaprovider.Client, opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms:          roomRepo,
		users:          userRepo,
		tokens:         tokens,
		provider:       provider,
		newID:          NewRoomID,
		idAttempts:     defaultIDAttempts,
		reconcileGrace: defaultReconcileGrace,
		nowFunc:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new room owned by ownerID and then creates its provider
// room. A provider failure leaves the room inactive with ProviderFailed and
// returns a *ProviderError.
func (r *Registry) Create(ctx context.Context, ownerID, name string, opts CreateOptions) (*RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxRoomNameLength {
		return nil, fmt.Errorf("[rooms Create] %w: room name is required and must be at most %d characters", apperrors.ErrInvalidRequest, maxRoomNameLength)
	}
	owner, err := r.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("[rooms Create] owner: %w", err)
	}

	room, err := r.insert(ctx, ownerID, name, opts.Description)
	if err != nil {
		return nil, err
	}

	if err := r.confirmProvider(ctx, room, opts.TemplateID); err != nil {
		return nil, err
	}

	log.Info().Str("roomId", room.RoomID).Str("owner", ownerID).Msg("room created")
	return &RoomView{Room: *room, Owner: ownerProjection(owner)}, nil
}

func (r *Registry) insert(ctx context.Context, ownerID, name, description string) (*Room, error) {
	for attempt := 0; attempt < r.idAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return nil, fmt.Errorf("[rooms Create] %w", err)
		}
		room := &Room{
			RoomID:         id,
			Name:           name,
			Description:    strings.TrimSpace(description),
			OwnerID:        ownerID,
			CreatedAt:      r.nowFunc().UTC(),
			Active:         true,
			ProviderStatus: ProviderPending,
		}
		err = r.rooms.Create(ctx, room)
		if err == nil {
			return room, nil
		}
		if !apperrors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("[rooms Create] %w", err)
		}
		log.Warn().Str("roomId", id).Msg("room id collision, retrying")
	}
	return nil, fmt.Errorf("[rooms Create] %w: could not allocate a unique room id", apperrors.ErrAlreadyExists)
}

// confirmProvider runs the provider leg for a stored room and records the
// outcome. Outcome writes are not tied to the caller's cancellation. A room
// that already carries a provider room id is confirmed without creating a
// second provider room.
func (r *Registry) confirmProvider(ctx context.Context, room *Room, templateID string) error {
	writeCtx := context.WithoutCancel(ctx)

	providerRoomID := room.ProviderRoomID
	if providerRoomID == "" {
		pr, err := r.provider.CreateRoom(ctx, mediaprovider.CreateRoomRequest{
			RoomID:      room.RoomID,
			Name:        room.Name,
			Description: room.Description,
			TemplateID:  templateID,
		})
		if err != nil {
			log.Err(err).Str("roomId", room.RoomID).Msg("media provider room creation failed")
			if serr := r.rooms.SetProvider(writeCtx, room.RoomID, "", ProviderFailed); serr != nil {
				log.Err(serr).Str("roomId", room.RoomID).Msg("failed to record provider failure")
			}
			if serr := r.rooms.UpdateStatus(writeCtx, room.RoomID, StatusUpdate{Active: utils.Ptr(false)}); serr != nil {
				log.Err(serr).Str("roomId", room.RoomID).Msg("failed to deactivate room")
			}
			return &ProviderError{RoomID: room.RoomID, Err: err}
		}
		providerRoomID = pr.ID
	}

	if err := r.rooms.SetProvider(writeCtx, room.RoomID, providerRoomID, ProviderReady); err != nil {
		// Keep the provider id so the next reconcile pass reuses it.
		if serr := r.rooms.SetProvider(writeCtx, room.RoomID, providerRoomID, ProviderFailed); serr != nil {
			log.Err(serr).Str("roomId", room.RoomID).Str("providerRoomId", providerRoomID).
				Msg("failed to record provider room")
		}
		return fmt.Errorf("[rooms Create] record provider room: %w", err)
	}
	room.ProviderRoomID = providerRoomID
	room.ProviderStatus = ProviderReady
	if !room.Active {
		if err := r.rooms.UpdateStatus(writeCtx, room.RoomID, StatusUpdate{Active: utils.Ptr(true)}); err != nil {
			return fmt.Errorf("[rooms Create] reactivate: %w", err)
		}
		room.Active = true
	}
	return nil
}

// List returns every room, newest first, with its owner's name and email.
func (r *Registry) List(ctx context.Context) ([]RoomView, error) {
	list, err := r.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("[rooms List] %w", err)
	}

	owners := make(map[string]users.Owner)
	views := make([]RoomView, 0, len(list))
	for _, room := range list {
		owner, ok := owners[room.OwnerID]
		if !ok {
			owner = r.lookupOwner(ctx, room.OwnerID)
			owners[room.OwnerID] = owner
		}
		views = append(views, RoomView{Room: *room, Owner: owner})
	}
	return views, nil
}

func (r *Registry) Get(ctx context.Context, roomID string) (*RoomView, error) {
	room, err := r.rooms.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("[rooms Get] %w", err)
	}
	return &RoomView{Room: *room, Owner: r.lookupOwner(ctx, room.OwnerID)}, nil
}

// Exists matches presence.RoomValidator so the hub can refuse joins to
// unknown rooms and to rooms that are inactive or have no provider room.
func (r *Registry) Exists(ctx context.Context, roomID string) error {
	if _, err := r.usableRoom(ctx, roomID); err != nil {
		return fmt.Errorf("[rooms Exists] %w", err)
	}
	return nil
}

// SetRecording toggles the recording flag. Only the owner may do this.
func (r *Registry) SetRecording(ctx context.Context, roomID, callerID string, recording bool) (*RoomView, error) {
	room, err := r.rooms.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("[rooms SetRecording] %w", err)
	}
	if !room.IsOwner(callerID) {
		return nil, fmt.Errorf("[rooms SetRecording] %w: only the room owner can change recording", apperrors.ErrForbidden)
	}

	now := r.nowFunc().UTC()
	update := StatusUpdate{
		Recording:          utils.Ptr(recording),
		RecordingStartedAt: utils.PtrIf(now, recording),
		RecordingStoppedAt: utils.PtrIf(now, !recording),
	}
	if err := r.rooms.UpdateStatus(ctx, roomID, update); err != nil {
		return nil, fmt.Errorf("[rooms SetRecording] %w", err)
	}
	return r.Get(ctx, roomID)
}

// Reconcile retries the provider leg once for every room that is still
// pending (past the grace period) or failed. Concurrent callers share a
// single pass.
func (r *Registry) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	v, err, _ := r.reconcileGroup.Do("reconcile", func() (any, error) {
		return r.reconcile(ctx)
	})
	report, _ := v.(*ReconcileReport)
	return report, err
}

func (r *Registry) reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Confirmed: []string{}, StillFailing: []string{}}
	cutoff := r.nowFunc().Add(-r.reconcileGrace)
	seen := make(map[string]struct{})

	for _, status := range []ProviderStatus{ProviderPending, ProviderFailed} {
		list, err := r.rooms.ListByProviderStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("[rooms Reconcile] %w", err)
		}
		for _, room := range list {
			if status == ProviderPending && room.CreatedAt.After(cutoff) {
				continue
			}
			// a pending room that failed in this pass shows up again as failed
			if _, ok := seen[room.RoomID]; ok {
				continue
			}
			seen[room.RoomID] = struct{}{}
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			if err := r.confirmProvider(ctx, room, ""); err != nil {
				report.StillFailing = append(report.StillFailing, room.RoomID)
				continue
			}
			report.Confirmed = append(report.Confirmed, room.RoomID)
		}
	}

	log.Info().Int("checked", report.Checked).Int("confirmed", len(report.Confirmed)).
		Int("failing", len(report.StillFailing)).Msg("room reconcile finished")
	return report, nil
}

// AccessToken issues a room-access credential. The role is derived from
// ownership; requested is advisory.
func (r *Registry) AccessToken(ctx context.Context, roomID, callerID string, requested token.Role) (*token.RoomAccessCredential, error) {
	room, err := r.usableRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("[rooms AccessToken] %w", err)
	}
	cred, err := r.tokens.IssueRoomAccess(callerID, room.Scope(), requested)
	if err != nil {
		return nil, fmt.Errorf("[rooms AccessToken] %w", err)
	}
	return cred, nil
}

// Join issues a room-access credential and exchanges it with the provider
// for a media-session token.
func (r *Registry) Join(ctx context.Context, roomID, callerID string, requested token.Role) (*JoinResult, error) {
	room, err := r.usableRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("[rooms Join] %w", err)
	}
	cred, err := r.tokens.IssueRoomAccess(callerID, room.Scope(), requested)
	if err != nil {
		return nil, fmt.Errorf("[rooms Join] %w", err)
	}

	session, err := r.provider.ExchangeToken(ctx, mediaprovider.ExchangeRequest{
		ProviderRoomID: room.ProviderRoomID,
		RoomID:         room.RoomID,
		UserID:         callerID,
		Role:           cred.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("[rooms Join] token exchange: %w", err)
	}
	return &JoinResult{Access: cred, Media: session}, nil
}

func (r *Registry) usableRoom(ctx context.Context, roomID string) (*Room, error) {
	room, err := r.rooms.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Usable() {
		return nil, fmt.Errorf("%w: room %s is not available (provider %s)", apperrors.ErrRoomUnavailable, roomID, room.ProviderStatus)
	}
	return room, nil
}

func (r *Registry) lookupOwner(ctx context.Context, ownerID string) users.Owner {
	owner, err := r.users.GetByID(ctx, ownerID)
	if err != nil {
		log.Warn().Err(err).Str("owner", ownerID).Msg("room owner lookup failed")
		return users.Owner{}
	}
	return ownerProjection(owner)
}

func ownerProjection(u *users.User) users.Owner {
	return users.Owner{Name: u.Name, Email: u.Email}
}
