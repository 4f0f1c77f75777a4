package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-peer/internal/transport"
)

type fakeTransport struct {
	mu           sync.Mutex
	hostedCode   string
	joinedCode   string
	rejectJoin   bool
	dropSends    bool
	open         bool
	sent         []protocol.Message
	onMessage    func(protocol.Message)
	onStatus     func(transport.Status)
	disconnected int
}

func (that *fakeTransport) HostUnderCode(_ context.Context, code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.hostedCode = code
}

func (that *fakeTransport) JoinByCode(_ context.Context, code string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.rejectJoin {
		return false
	}
	that.joinedCode = code

	return true
}

func (that *fakeTransport) Send(msg protocol.Message) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.open || that.dropSends {
		return false
	}
	that.sent = append(that.sent, msg)

	return true
}

func (that *fakeTransport) OnMessage(handler func(protocol.Message)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onMessage = handler
}

func (that *fakeTransport) OnStatusChange(handler func(transport.Status)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onStatus = handler
}

func (that *fakeTransport) Disconnect() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.open = false
	that.disconnected++
}

func (that *fakeTransport) failSends() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dropSends = true
}

// fire delivers a status the way a transport would: from outside any session call.
func (that *fakeTransport) fire(status transport.Status) {
	that.mu.Lock()
	switch status.Kind {
	case transport.StatusConnected:
		that.open = true
	case transport.StatusClosed, transport.StatusError:
		that.open = false
	}
	handler := that.onStatus
	that.mu.Unlock()

	handler(status)
}

func (that *fakeTransport) receive(msg protocol.Message) {
	that.mu.Lock()
	handler := that.onMessage
	that.mu.Unlock()

	handler(msg)
}

func (that *fakeTransport) sentMessages() []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]protocol.Message(nil), that.sent...)
}

func (that *fakeTransport) lastSent() protocol.Message {
	sent := that.sentMessages()
	if len(sent) == 0 {
		return protocol.Message{}
	}

	return sent[len(sent)-1]
}

type fakeFactory struct {
	mu         sync.Mutex
	created    []*fakeTransport
	rejectJoin bool
}

func (that *fakeFactory) New() transport.Transport {
	that.mu.Lock()
	defer that.mu.Unlock()

	link := &fakeTransport{rejectJoin: that.rejectJoin}
	that.created = append(that.created, link)

	return link
}

func (that *fakeFactory) last() *fakeTransport {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.created) == 0 {
		return nil
	}

	return that.created[len(that.created)-1]
}

func (that *fakeFactory) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.created)
}

// fakeOpponent queues moves instead of sleeping; tests fire them by hand.
type fakeOpponent struct {
	mu      sync.Mutex
	pending []func()
	next    []int
}

func (that *fakeOpponent) PickCell(board entity.Board) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for len(that.next) > 0 {
		cell := that.next[0]
		that.next = that.next[1:]
		if board[cell] == entity.Empty {
			return cell, nil
		}
	}

	for i, cell := range board {
		if cell == entity.Empty {
			return i, nil
		}
	}

	return 0, io.EOF
}

func (that *fakeOpponent) Schedule(fn func()) *time.Timer {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending = append(that.pending, fn)

	return time.NewTimer(time.Hour)
}

func (that *fakeOpponent) scheduled() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.pending)
}

// fireAll runs every queued move, including ones a stopped timer would have cancelled.
func (that *fakeOpponent) fireAll() {
	that.mu.Lock()
	pending := that.pending
	that.pending = nil
	that.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSessionOptions(name string) SessionOptions {
	return SessionOptions{
		PlayerName:    name,
		DemoHostDelay: 10 * time.Millisecond,
		DemoJoinDelay: 10 * time.Millisecond,
		ShareBaseURL:  "tictactoe://join",
	}
}
