package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

// ApplyMove - returns a copy of the game with mark placed on cell. The input is never mutated.
func ApplyMove(game entity.GameState, cell int, mark entity.Symbol) (entity.GameState, error) {
	if err := validateMove(game, cell, mark); err != nil {
		return game, fmt.Errorf("invalid move: %w", err)
	}

	game.Cells[cell] = mark

	return game, nil
}

// DetectTerminal - the first fully matching line wins; a full board without one is a tie.
func DetectTerminal(board entity.Board) entity.Outcome {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.Empty && a == b && b == c {
			return entity.Outcome{Kind: entity.OutcomeWin, Winner: a, Line: combo}
		}
	}

	if board.IsFull() {
		return entity.Outcome{Kind: entity.OutcomeTie}
	}

	return entity.Outcome{Kind: entity.OutcomeNone}
}

// Play - applies a move, then either ends the game or hands the turn to the other side.
func Play(game entity.GameState, cell int, mark entity.Symbol) (entity.GameState, error) {
	next, err := ApplyMove(game, cell, mark)
	if err != nil {
		return game, err
	}

	updateGameStatus(&next)

	return next, nil
}

// EmptyCells - indices still open, in board order.
func EmptyCells(board entity.Board) []int {
	cells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == entity.Empty {
			cells = append(cells, i)
		}
	}

	return cells
}

func validateMove(game entity.GameState, cell int, mark entity.Symbol) error {
	if game.Ended {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(game.Cells) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if !mark.IsMark() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidSymbol, mark)
	}

	if game.Cells[cell] != entity.Empty {
		return apperror.ErrCellOccupied
	}

	return nil
}

func updateGameStatus(game *entity.GameState) {
	outcome := DetectTerminal(game.Cells)
	if outcome.IsTerminal() {
		game.Ended = true
		game.Outcome = outcome
		return
	}

	game.TurnOwner = game.TurnOwner.Other()
}
