package entity

// Phase - single source of truth for where a session is.
type Phase string

const (
	PhaseSetup        Phase = "setup"
	PhaseAwaitingPeer Phase = "awaiting-peer"
	PhaseConnected    Phase = "connected"
	PhasePlaying      Phase = "playing"
	PhaseEnded        Phase = "ended"
)

type StatusKind string

const (
	StatusNone    StatusKind = "none"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// ConnectionStatus - human-readable projection of the link state.
type ConnectionStatus struct {
	Message string     `json:"message"`
	Kind    StatusKind `json:"kind"`
}

func NewStatus(kind StatusKind, message string) ConnectionStatus {
	return ConnectionStatus{Message: message, Kind: kind}
}
