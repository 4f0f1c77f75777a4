package transport

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-peer/internal/protocol"
)

type StatusKind string

const (
	// StatusConnecting - an attempt has started.
	StatusConnecting StatusKind = "connecting"
	// StatusReady - host endpoint is registered under the code.
	StatusReady StatusKind = "ready"
	// StatusPeerJoined - a joiner dialed the host. Always followed by StatusConnected.
	StatusPeerJoined StatusKind = "peer-joined"
	// StatusConnected - the channel is open on this side.
	StatusConnected StatusKind = "connected"
	// StatusClosed - an open link went away.
	StatusClosed StatusKind = "closed"
	// StatusError - the attempt failed; the endpoint is already torn down.
	StatusError StatusKind = "error"
)

type ErrorKind string

const (
	ErrorNone         ErrorKind = ""
	ErrorNotFound     ErrorKind = "not-found"
	ErrorAddressInUse ErrorKind = "address-in-use"
	ErrorTimeout      ErrorKind = "timeout"
	ErrorFailed       ErrorKind = "failed"
	ErrorLinkLost     ErrorKind = "link-lost"
)

type Status struct {
	Kind  StatusKind
	Err   ErrorKind
	Cause error
	// Peer - remote peer id when known.
	Peer string
}

// Transport - one connection attempt. A fresh instance is used per attempt; instances are never reused.
//
// Callbacks are delivered one at a time, in order, from a goroutine owned by the transport,
// never from inside a call into it. No new callback starts after Disconnect returns.
type Transport interface {
	// HostUnderCode - registers the local endpoint under code. Outcome arrives as status events.
	HostUnderCode(ctx context.Context, code string)
	// JoinByCode - returns false without any attempt when code is not 4 characters.
	JoinByCode(ctx context.Context, code string) bool
	// Send - false unless the link is open. Never blocks on the network.
	Send(msg protocol.Message) bool
	// OnMessage - replaces the previous handler.
	OnMessage(handler func(protocol.Message))
	// OnStatusChange - replaces the previous handler.
	OnStatusChange(handler func(Status))
	// Disconnect - idempotent and safe before any attempt.
	Disconnect()
}

type Factory func() Transport
