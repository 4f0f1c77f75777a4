package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

type sqlRoom struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRoomRepository - registry for hosts that share a filesystem, no Redis needed.
func NewSQLiteRoomRepository(db *sql.DB) RoomRepository {
	return &sqlRoom{
		db:  db,
		now: time.Now,
	}
}

func (that *sqlRoom) Register(ctx context.Context, room *entity.Room, ttl time.Duration) error {
	now := that.now()

	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rooms WHERE code = ? AND expires_at <= ?`, room.Code, now.UnixNano()); err != nil {
		return fmt.Errorf("failed to drop expired room: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO rooms (code, addr, host_id, expires_at) VALUES (?, ?, ?, ?)`,
		room.Code, room.Addr, room.HostID, now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", apperror.ErrRoomTaken, room.Code)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit room: %w", err)
	}

	return nil
}

func (that *sqlRoom) Lookup(ctx context.Context, code string) (*entity.Room, error) {
	room := entity.Room{Code: code}

	err := that.db.QueryRowContext(ctx,
		`SELECT addr, host_id FROM rooms WHERE code = ? AND expires_at > ?`,
		code, that.now().UnixNano(),
	).Scan(&room.Addr, &room.HostID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

func (that *sqlRoom) Release(ctx context.Context, code, hostID string) error {
	if _, err := that.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ? AND host_id = ?`, code, hostID); err != nil {
		return fmt.Errorf("failed to release room: %w", err)
	}

	return nil
}
