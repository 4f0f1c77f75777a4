package usecase

import "github.com/rocketscienceinc/tictactoe-peer/internal/entity"

// Mode - where the opponent's moves come from.
type Mode string

const (
	ModeNone    Mode = ""
	ModePeer    Mode = "peer"
	ModeDemo    Mode = "demo"
	ModeOffline Mode = "offline"
)

// View - a copy of the session state for rendering.
type View struct {
	Phase          entity.Phase
	Role           entity.Role
	Method         entity.Method
	Mode           Mode
	Code           string
	Status         entity.ConnectionStatus
	Game           entity.GameState
	MySymbol       entity.Symbol
	OpponentSymbol entity.Symbol
	HostStarts     bool
	LocalName      string
	OpponentName   string
	GameCount      int
	LinkUp         bool
	LinkLost       bool
}

func (that View) IsHost() bool {
	return that.Role == entity.RoleInitiator
}

// Connected - a real peer link is open right now.
func (that View) Connected() bool {
	return that.LinkUp && !that.LinkLost
}

func (that View) CanMove() bool {
	return that.Phase == entity.PhasePlaying && !that.LinkLost && that.Game.IsLocalTurn()
}
