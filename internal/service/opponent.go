package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/tictactoe"
)

// Opponent - stands in for a remote peer when no link is delivering moves.
type Opponent struct {
	delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewOpponent - src may be nil, then a time-seeded source is used.
func NewOpponent(delay time.Duration, src rand.Source) *Opponent {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}

	return &Opponent{
		delay: delay,
		rnd:   rand.New(src), //nolint: gosec // it's ok
	}
}

// PickCell - a uniformly random empty cell.
func (that *Opponent) PickCell(board entity.Board) (int, error) {
	availableCells := tictactoe.EmptyCells(board)
	if len(availableCells) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return availableCells[that.rnd.Intn(len(availableCells))], nil
}

// Schedule - runs fn after the think-time delay. Stop the timer to cancel.
func (that *Opponent) Schedule(fn func()) *time.Timer {
	return time.AfterFunc(that.delay, fn)
}
