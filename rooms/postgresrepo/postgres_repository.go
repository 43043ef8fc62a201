package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-room-server/internal/dbx"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/internal/utils"
	"github.com/jrsteele09/go-room-server/rooms"
)

var _ rooms.RoomRepo = (*PostgresRepository)(nil)

const roomColumns = `room_id, name, description, owner_id, created_at, active, recording,
		recording_started_at, recording_stopped_at, provider_room_id, provider_status`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, room *rooms.Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if room.ProviderStatus == "" {
		room.ProviderStatus = rooms.ProviderPending
	}

	query :=
		`INSERT INTO rooms (` + roomColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		room.RoomID, room.Name, room.Description, room.OwnerID, room.CreatedAt, room.Active, room.Recording,
		nullTime(room.RecordingStartedAt), nullTime(room.RecordingStoppedAt), room.ProviderRoomID, string(room.ProviderStatus))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*rooms.Room, error) {
	query :=
		`SELECT ` + roomColumns + ` FROM rooms
		 ORDER BY created_at DESC`
	return r.queryRooms(ctx, query)
}

func (r *PostgresRepository) GetByRoomID(ctx context.Context, roomID string) (*rooms.Room, error) {
	query :=
		`SELECT ` + roomColumns + ` FROM rooms
		 WHERE room_id = $1`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return room, nil
}

// UpdateStatus is a single statement, so concurrent updates to disjoint
// fields of the same room do not lose each other.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, roomID string, update rooms.StatusUpdate) error {
	query :=
		`UPDATE rooms SET
		   active = COALESCE($2, active),
		   recording = COALESCE($3, recording),
		   recording_started_at = COALESCE($4, recording_started_at),
		   recording_stopped_at = COALESCE($5, recording_stopped_at)
		 WHERE room_id = $1`

	res, err := r.db.ExecContext(ctx, query, roomID,
		nullBool(update.Active), nullBool(update.Recording),
		nullTime(update.RecordingStartedAt), nullTime(update.RecordingStoppedAt))
	return affectedOne(res, err)
}

func (r *PostgresRepository) SetProvider(ctx context.Context, roomID, providerRoomID string, status rooms.ProviderStatus) error {
	query :=
		`UPDATE rooms SET provider_room_id = $2, provider_status = $3
		 WHERE room_id = $1`

	res, err := r.db.ExecContext(ctx, query, roomID, providerRoomID, string(status))
	return affectedOne(res, err)
}

func (r *PostgresRepository) ListByProviderStatus(ctx context.Context, status rooms.ProviderStatus) ([]*rooms.Room, error) {
	query :=
		`SELECT ` + roomColumns + ` FROM rooms
		 WHERE provider_status = $1
		 ORDER BY created_at`
	return r.queryRooms(ctx, query, string(status))
}

func (r *PostgresRepository) queryRooms(ctx context.Context, query string, args ...any) ([]*rooms.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*rooms.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*rooms.Room, error) {
	var (
		room       rooms.Room
		started    sql.NullTime
		stopped    sql.NullTime
		provStatus string
	)
	err := row.Scan(&room.RoomID, &room.Name, &room.Description, &room.OwnerID, &room.CreatedAt,
		&room.Active, &room.Recording, &started, &stopped, &room.ProviderRoomID, &provStatus)
	if err != nil {
		return nil, err
	}
	room.RecordingStartedAt = utils.PtrIf(started.Time, started.Valid)
	room.RecordingStoppedAt = utils.PtrIf(stopped.Time, stopped.Valid)
	room.ProviderStatus = rooms.ProviderStatus(provStatus)
	return &room, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	return sql.NullBool{Bool: utils.Value(b), Valid: b != nil}
}

func nullTime(t *time.Time) sql.NullTime {
	return sql.NullTime{Time: utils.Value(t), Valid: t != nil}
}
