package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/usecase"
)

// Render - board, players and status. Empty cells show the number to type.
func Render(w io.Writer, view usecase.View) {
	var sb strings.Builder

	sb.WriteString("\n")
	if view.Phase == entity.PhasePlaying || view.Phase == entity.PhaseEnded {
		writeBoard(&sb, view.Game.Cells)
		sb.WriteString(players(view))
		sb.WriteString("\n")
		sb.WriteString(turnLine(view))
		sb.WriteString("\n")
	} else if view.Code != "" {
		fmt.Fprintf(&sb, "Game code: %s\n", view.Code)
	}

	if view.Status.Message != "" {
		fmt.Fprintf(&sb, "[%s] %s\n", view.Status.Kind, view.Status.Message)
	}

	_, _ = io.WriteString(w, sb.String())
}

func writeBoard(sb *strings.Builder, board entity.Board) {
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if board[i] == entity.Empty {
				cells[col] = strconv.Itoa(i + 1)
			} else {
				cells[col] = string(board[i])
			}
		}

		sb.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
}

func players(view usecase.View) string {
	return fmt.Sprintf("%s (%s) vs %s (%s), game #%d",
		view.LocalName, view.MySymbol, view.OpponentName, view.OpponentSymbol, view.GameCount+1)
}

func turnLine(view usecase.View) string {
	outcome := view.Game.Outcome

	switch {
	case outcome.Kind == entity.OutcomeTie:
		return "It's a tie! Type 'new' for a rematch."
	case outcome.Kind == entity.OutcomeWin && outcome.Winner == view.MySymbol:
		return "You win! Type 'new' for a rematch."
	case outcome.Kind == entity.OutcomeWin:
		return fmt.Sprintf("%s wins. Type 'new' for a rematch.", view.OpponentName)
	case view.Game.TurnOwner == entity.SideLocal:
		return "Your turn: move <1-9>"
	default:
		return fmt.Sprintf("Waiting for %s...", view.OpponentName)
	}
}
