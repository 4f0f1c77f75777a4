package entity

// Role - fixed for the lifetime of a connection.
type Role string

const (
	RoleNone      Role = ""
	RoleInitiator Role = "initiator"
	RoleJoiner    Role = "joiner"
)

// Assignment - symbols derived from (role, hostStarts). The side that starts plays X.
type Assignment struct {
	Role           Role   `json:"role"`
	HostStarts     bool   `json:"host_starts"`
	MySymbol       Symbol `json:"my_symbol"`
	OpponentSymbol Symbol `json:"opponent_symbol"`
}

// AssignSymbols - both ends call it with the same hostStarts and opposite roles,
// so they always derive complementary symbols.
func AssignSymbols(role Role, hostStarts bool) Assignment {
	iStart := (role == RoleInitiator) == hostStarts

	mine := O
	if iStart {
		mine = X
	}

	return Assignment{
		Role:           role,
		HostStarts:     hostStarts,
		MySymbol:       mine,
		OpponentSymbol: mine.Opponent(),
	}
}

// FirstTurn - the side holding X moves first.
func (that Assignment) FirstTurn() Side {
	if that.MySymbol == X {
		return SideLocal
	}
	return SideRemote
}
