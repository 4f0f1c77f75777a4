package entity

import "strings"

const (
	DefaultHostName  = "Host"
	DefaultGuestName = "Guest"
	ComputerName     = "Computer"
)

type Player struct {
	Name   string `json:"name"`
	Symbol Symbol `json:"symbol,omitempty"`
}

// DisplayName - trims the name and falls back to the role default.
func DisplayName(name string, role Role) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}

	if role == RoleJoiner {
		return DefaultGuestName
	}
	return DefaultHostName
}
