package repository

import (
	"context"
	"time"

	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

// unavailableRoom - stands in for a registry that could not be opened. Direct links fail, everything else keeps working.
type unavailableRoom struct{}

func NewUnavailableRoomRepository() RoomRepository {
	return unavailableRoom{}
}

func (that unavailableRoom) Register(_ context.Context, _ *entity.Room, _ time.Duration) error {
	return apperror.ErrSignalingUnavailable
}

func (that unavailableRoom) Lookup(_ context.Context, _ string) (*entity.Room, error) {
	return nil, apperror.ErrSignalingUnavailable
}

func (that unavailableRoom) Release(_ context.Context, _, _ string) error {
	return nil
}
