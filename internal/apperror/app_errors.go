package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrNoAvailableMoves = errors.New("no available moves")

	ErrInvalidCode   = errors.New("invalid rendezvous code")
	ErrRoomNotFound  = errors.New("game room not found")
	ErrRoomTaken     = errors.New("game room code is already in use")
	ErrMalformedLink = errors.New("malformed share link")

	ErrSignalingUnavailable = errors.New("signaling unavailable")
)
