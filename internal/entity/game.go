package entity

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"
)

const BoardSize = 9

// WinCombos - the 8 winning lines in the order they are checked: rows, columns, diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Symbol - a mark placed on the board.
type Symbol string

func (that Symbol) IsMark() bool {
	return that == X || that == O
}

// Opponent - returns the other mark, or Empty for a non-mark.
func (that Symbol) Opponent() Symbol {
	switch that {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board - 9 cells, row-major.
type Board [BoardSize]Symbol

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}

	return true
}

// Side - which participant owns the turn, seen from this process.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

func (that Side) Other() Side {
	if that == SideLocal {
		return SideRemote
	}
	return SideLocal
}

type OutcomeKind string

const (
	OutcomeNone OutcomeKind = ""
	OutcomeWin  OutcomeKind = "win"
	OutcomeTie  OutcomeKind = "tie"
)

type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Symbol      `json:"winner,omitempty"`
	Line   [3]int      `json:"line,omitempty"`
}

func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeTie
}

// GameState - one game instance. Values are copied, never shared.
type GameState struct {
	Cells     Board   `json:"cells"`
	TurnOwner Side    `json:"turn_owner"`
	Ended     bool    `json:"ended"`
	Outcome   Outcome `json:"outcome"`
}

func NewGameState(first Side) GameState {
	return GameState{
		TurnOwner: first,
	}
}

func (that GameState) IsLocalTurn() bool {
	return !that.Ended && that.TurnOwner == SideLocal
}
