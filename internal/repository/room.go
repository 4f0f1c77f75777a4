package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

const roomKeyPrefix = "room:"

// RoomRepository - maps rendezvous codes to hosted endpoints.
type RoomRepository interface {
	// Register - fails with apperror.ErrRoomTaken while another live room holds the code.
	Register(ctx context.Context, room *entity.Room, ttl time.Duration) error
	// Lookup - fails with apperror.ErrRoomNotFound for unknown or expired codes.
	Lookup(ctx context.Context, code string) (*entity.Room, error)
	// Release - removes the room only when hostID still owns it. Idempotent.
	Release(ctx context.Context, code, hostID string) error
}

// releaseScript deletes the key only if it still belongs to the given host.
var releaseScript = redis.NewScript(`
local value = redis.call("GET", KEYS[1])
if not value then
	return 0
end
if cjson.decode(value)["host_id"] == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func (that *dbRoom) Register(ctx context.Context, room *entity.Room, ttl time.Duration) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	ok, err := that.client.SetNX(ctx, roomKeyPrefix+room.Code, roomJSON, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomTaken, room.Code)
	}

	return nil
}

func (that *dbRoom) Lookup(ctx context.Context, code string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+code).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal([]byte(response), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (that *dbRoom) Release(ctx context.Context, code, hostID string) error {
	if err := releaseScript.Run(ctx, that.client, []string{roomKeyPrefix + code}, hostID).Err(); err != nil {
		return fmt.Errorf("failed to release room: %w", err)
	}

	return nil
}
