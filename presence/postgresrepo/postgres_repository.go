package postgresrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jrsteele09/go-room-server/internal/dbx"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/presence"
)

var _ presence.EntryRepo = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *presence.Entry) error {
	query :=
		`INSERT INTO presence_entries (id, room_id, user_id, name, joined_at, active)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.RoomID, entry.UserID, entry.Name, entry.JoinedAt, entry.Active)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkInactive(ctx context.Context, entryID string, leftAt time.Time) error {
	query :=
		`UPDATE presence_entries SET active = false, left_at = $2
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, entryID, leftAt)
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

// CloseActive marks every active entry inactive. Live presence is held in
// memory, so entries still active at startup belong to a previous process.
func (r *PostgresRepository) CloseActive(ctx context.Context, leftAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE presence_entries SET active = false, left_at = $1 WHERE active`, leftAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]*presence.Entry, error) {
	query :=
		`SELECT id, room_id, user_id, name, joined_at, left_at, active FROM presence_entries
		 WHERE room_id = $1 AND (active OR NOT $2)
		 ORDER BY joined_at, id`

	rows, err := r.db.QueryContext(ctx, query, roomID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*presence.Entry, 0)
	for rows.Next() {
		e := &presence.Entry{}
		var leftAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.RoomID, &e.UserID, &e.Name, &e.JoinedAt, &leftAt, &e.Active); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if leftAt.Valid {
			e.LeftAt = &leftAt.Time
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
