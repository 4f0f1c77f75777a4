package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-peer/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-peer/internal/share"
	"github.com/rocketscienceinc/tictactoe-peer/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-peer/internal/transport"
)

const (
	msgIdle             = "Select a connection method above"
	msgMethodSelected   = "%s selected. Choose host or join."
	msgCreatingRoom     = "Creating game room..."
	msgRoomCreated      = "Game room created! Share the code with your friend."
	msgRoomCreatedStub  = "Game room created! Share the code."
	msgPlayerConnected  = "Player connected! Starting game..."
	msgConnecting       = "Connecting to game..."
	msgJoiningStub      = "Joining game..."
	msgConnected        = "Connected! Starting game..."
	msgConnectionLost   = "Connection lost"
	msgBadCode          = "Please enter a 4-letter code"
	msgRoomNotFound     = "Game room not found. Check the code."
	msgRoomTaken        = "Game room code is already in use. Try again."
	msgHostTimeout      = "Connection timeout. Try again."
	msgJoinTimeout      = "Connection timeout. Check the code."
	msgHostFailed       = "Failed to create room: %s"
	msgJoinFailed       = "Failed to connect: %s"
	msgUnknownMethod    = "Unknown connection method: %s"
	msgOfflineGame      = "Playing offline against the computer."
	demoGuestName       = "Guest Player"
	demoHostName        = "Host Player"
	defaultFailedReason = "connection failed"
)

type opponentSimulator interface {
	PickCell(board entity.Board) (int, error)
	Schedule(fn func()) *time.Timer
}

type SessionOptions struct {
	PlayerName    string
	DemoHostDelay time.Duration
	DemoJoinDelay time.Duration
	ShareBaseURL  string
}

// Session - owns the game, the role assignment and the single active transport.
//
// Transport callbacks and timers capture the epoch/round they were created in;
// anything arriving for an older epoch or round is dropped.
type Session struct {
	logger       *slog.Logger
	newTransport transport.Factory
	simulator    opponentSimulator
	opts         SessionOptions

	updates chan struct{}

	mu     sync.Mutex
	epoch  uint64
	round  uint64
	timers []*time.Timer

	link     transport.Transport
	linkUp   bool
	linkLost bool

	phase  entity.Phase
	role   entity.Role
	method entity.Method
	mode   Mode
	code   string
	status entity.ConnectionStatus

	hostStarts     bool
	game           entity.GameState
	gameCount      int
	rematchPending bool

	local    entity.Player
	opponent entity.Player
}

func NewSession(logger *slog.Logger, newTransport transport.Factory, simulator opponentSimulator, opts SessionOptions) *Session {
	session := &Session{
		logger:       logger.With("component", "session"),
		newTransport: newTransport,
		simulator:    simulator,
		opts:         opts,

		updates: make(chan struct{}, 1),
	}

	session.resetLocked()

	return session
}

// Updates - signalled after every state change. Signals coalesce.
func (that *Session) Updates() <-chan struct{} {
	return that.updates
}

func (that *Session) Snapshot() View {
	that.mu.Lock()
	defer that.mu.Unlock()

	return View{
		Phase:          that.phase,
		Role:           that.role,
		Method:         that.method,
		Mode:           that.mode,
		Code:           that.code,
		Status:         that.status,
		Game:           that.game,
		MySymbol:       that.local.Symbol,
		OpponentSymbol: that.opponent.Symbol,
		HostStarts:     that.hostStarts,
		LocalName:      that.local.Name,
		OpponentName:   that.opponent.Name,
		GameCount:      that.gameCount,
		LinkUp:         that.linkUp,
		LinkLost:       that.linkLost,
	}
}

func (that *Session) SetPlayerName(name string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseSetup {
		return false
	}

	that.opts.PlayerName = strings.TrimSpace(name)
	that.notify()

	return true
}

func (that *Session) SelectTransportMethod(method entity.Method) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseSetup {
		return false
	}

	parsed, ok := entity.ParseMethod(string(method))
	if !ok {
		that.setStatus(entity.StatusError, fmt.Sprintf(msgUnknownMethod, method))
		return false
	}

	that.method = parsed
	that.setStatus(entity.StatusNone, fmt.Sprintf(msgMethodSelected, strings.ToUpper(string(parsed))))

	return true
}

// Host - generates a code and starts listening under it. Returns the code.
func (that *Session) Host(ctx context.Context) (string, bool) {
	log := that.logger.With("method", "Host")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseSetup {
		return "", false
	}

	that.epoch++
	that.phase = entity.PhaseAwaitingPeer
	that.role = entity.RoleInitiator
	that.code = pkg.GenerateCode()
	that.local.Name = entity.DisplayName(that.opts.PlayerName, entity.RoleInitiator)

	log.Info("hosting", "code", that.code, "transport", that.method)

	if !that.method.IsDirect() {
		that.mode = ModeDemo
		that.setStatus(entity.StatusSuccess, msgRoomCreatedStub)
		that.scheduleDemo(that.opts.DemoHostDelay, demoGuestName)

		return that.code, true
	}

	that.mode = ModePeer
	that.setStatus(entity.StatusLoading, msgCreatingRoom)
	that.attach(that.newTransport()).HostUnderCode(ctx, that.code)

	return that.code, true
}

// Join - dials a code entered by the user. Input is trimmed and upper-cased.
func (that *Session) Join(ctx context.Context, rawCode string) bool {
	log := that.logger.With("method", "Join")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseSetup {
		return false
	}

	code := pkg.NormalizeCode(rawCode)
	if err := pkg.ValidateCode(code); err != nil {
		log.Debug("code rejected", "error", err)
		that.setStatus(entity.StatusError, msgBadCode)
		return false
	}

	that.epoch++
	that.phase = entity.PhaseAwaitingPeer
	that.role = entity.RoleJoiner
	that.code = code
	that.local.Name = entity.DisplayName(that.opts.PlayerName, entity.RoleJoiner)

	log.Info("joining", "code", code, "transport", that.method)

	if !that.method.IsDirect() {
		that.mode = ModeDemo
		that.setStatus(entity.StatusLoading, msgJoiningStub)
		that.scheduleDemo(that.opts.DemoJoinDelay, demoHostName)

		return true
	}

	that.mode = ModePeer
	that.setStatus(entity.StatusLoading, msgConnecting)

	if !that.attach(that.newTransport()).JoinByCode(ctx, code) {
		that.failAttempt(msgBadCode)
		return false
	}

	return true
}

// AutoJoin - joins from a share link once confirm agrees.
func (that *Session) AutoJoin(ctx context.Context, link share.Link, confirm func(share.Link) bool) bool {
	method, ok := entity.ParseMethod(string(link.Method))
	if !ok {
		that.mu.Lock()
		that.setStatus(entity.StatusError, fmt.Sprintf(msgUnknownMethod, link.Method))
		that.mu.Unlock()

		return false
	}

	if confirm == nil || !confirm(link) {
		return false
	}

	if !that.SelectTransportMethod(method) {
		return false
	}

	return that.Join(ctx, link.Code)
}

// PlayOffline - a local game against the simulator, no code involved.
func (that *Session) PlayOffline() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseSetup {
		return false
	}

	that.epoch++
	that.role = entity.RoleInitiator
	that.mode = ModeOffline
	that.local.Name = entity.DisplayName(that.opts.PlayerName, entity.RoleInitiator)
	that.opponent.Name = entity.ComputerName
	that.setStatus(entity.StatusSuccess, msgOfflineGame)
	that.startGame()

	return true
}

// AttemptMove - places the local symbol. False means nothing changed and nothing was sent.
func (that *Session) AttemptMove(index int) bool {
	log := that.logger.With("method", "AttemptMove")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhasePlaying || that.linkLost || !that.game.IsLocalTurn() {
		return false
	}

	next, err := tictactoe.Play(that.game, index, that.local.Symbol)
	if err != nil {
		log.Debug("move rejected", "cell", index, "error", err)
		return false
	}

	that.commit(next)

	delivered := that.link != nil && that.link.Send(protocol.NewMove(index, that.local.Symbol))
	if !delivered && !next.Ended {
		that.scheduleOpponent()
	}

	return true
}

// RequestNewGame - rematch after a finished game; the starting side alternates.
func (that *Session) RequestNewGame() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != entity.PhaseEnded || that.linkLost {
		return false
	}

	if that.link != nil && that.link.Send(protocol.NewNewGame()) {
		that.rematchPending = true
	}

	that.rematch()

	return true
}

// ShareRendezvousCode - invite for the hosted code.
func (that *Session) ShareRendezvousCode() (share.Invite, bool) {
	that.mu.Lock()
	code, method := that.code, that.method
	that.mu.Unlock()

	if code == "" {
		return share.Invite{}, false
	}

	invite, err := share.NewInvite(that.opts.ShareBaseURL, code, method)
	if err != nil {
		that.logger.Error("failed to build invite", "error", err)
		return share.Invite{}, false
	}

	return invite, true
}

// Disconnect - drops everything and returns to setup. Safe in any state.
func (that *Session) Disconnect() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.logger.Info("disconnect", "phase", that.phase)

	that.teardownLocked()
	that.resetLocked()
	that.notify()
}

// attach wires a fresh transport into the current epoch.
func (that *Session) attach(link transport.Transport) transport.Transport {
	epoch := that.epoch

	link.OnStatusChange(func(status transport.Status) {
		that.handleStatus(epoch, status)
	})
	link.OnMessage(func(msg protocol.Message) {
		that.handleMessage(epoch, msg)
	})

	that.link = link
	that.linkUp = false
	that.linkLost = false

	return link
}

func (that *Session) handleStatus(epoch uint64, status transport.Status) {
	log := that.logger.With("method", "handleStatus", "status", status.Kind)

	that.mu.Lock()
	defer that.mu.Unlock()

	if epoch != that.epoch {
		log.Debug("stale status dropped")
		return
	}

	switch status.Kind {
	case transport.StatusConnecting:
		return
	case transport.StatusReady:
		that.setStatus(entity.StatusSuccess, msgRoomCreated)
	case transport.StatusPeerJoined:
		that.setStatus(entity.StatusSuccess, msgPlayerConnected)
	case transport.StatusConnected:
		that.linkUp = true

		if that.role != entity.RoleJoiner {
			that.notify()
			return
		}

		that.phase = entity.PhaseConnected
		that.setStatus(entity.StatusSuccess, msgConnected)

		if !that.link.Send(protocol.NewPlayerInfo(that.local.Name)) {
			log.Error("could not introduce ourselves to the host")
			that.failAttempt(msgConnectionLost)
		}
	case transport.StatusClosed:
		that.linkLost = true
		log.Info("link lost", "error", status.Cause)

		if that.phase == entity.PhasePlaying || that.phase == entity.PhaseEnded {
			that.cancelTimers()
			that.setStatus(entity.StatusError, msgConnectionLost)
			return
		}

		that.failAttempt(msgConnectionLost)
	case transport.StatusError:
		log.Error("connection attempt failed", "kind", status.Err, "error", status.Cause)
		that.failAttempt(that.errorMessage(status))
	}
}

func (that *Session) handleMessage(epoch uint64, msg protocol.Message) {
	log := that.logger.With("method", "handleMessage", "type", msg.Type)

	that.mu.Lock()
	defer that.mu.Unlock()

	if epoch != that.epoch {
		log.Debug("stale message dropped")
		return
	}

	switch msg.Type {
	case protocol.TypePlayerInfo:
		if that.role != entity.RoleInitiator || that.phase != entity.PhaseAwaitingPeer || !that.linkUp {
			return
		}

		that.opponent.Name = entity.DisplayName(msg.Name, entity.RoleJoiner)
		if !that.link.Send(protocol.NewGameStart(that.hostStarts, that.local.Name)) {
			log.Error("could not send game start")
			return
		}

		that.startGame()
	case protocol.TypeGameStart:
		if that.role != entity.RoleJoiner || that.phase != entity.PhaseConnected || msg.StartsFirst == nil {
			return
		}

		that.hostStarts = *msg.StartsFirst
		that.opponent.Name = entity.DisplayName(msg.HostName, entity.RoleInitiator)
		that.startGame()
	case protocol.TypeMove:
		that.rematchPending = false

		if msg.Index == nil || !that.applyRemoteMove(*msg.Index, msg.Symbol) {
			log.Debug("remote move ignored")
		}
	case protocol.TypeNewGame:
		if that.rematchPending {
			// both sides asked at once; each already reset for its own request
			that.rematchPending = false
			return
		}

		if that.phase == entity.PhasePlaying || that.phase == entity.PhaseEnded {
			that.rematch()
		}
	}
}

// applyRemoteMove - the single entry point for opponent moves, from the link or the simulator.
func (that *Session) applyRemoteMove(index int, symbol entity.Symbol) bool {
	if that.phase != entity.PhasePlaying || that.game.TurnOwner != entity.SideRemote {
		return false
	}

	if symbol != that.opponent.Symbol {
		return false
	}

	next, err := tictactoe.Play(that.game, index, symbol)
	if err != nil {
		return false
	}

	that.commit(next)

	return true
}

func (that *Session) commit(next entity.GameState) {
	that.game = next
	if next.Ended {
		that.phase = entity.PhaseEnded
	}

	that.notify()
}

func (that *Session) startGame() {
	that.cancelTimers()
	that.round++

	assignment := entity.AssignSymbols(that.role, that.hostStarts)
	that.local.Symbol = assignment.MySymbol
	that.opponent.Symbol = assignment.OpponentSymbol
	that.game = entity.NewGameState(assignment.FirstTurn())
	that.phase = entity.PhasePlaying
	that.notify()

	if that.game.TurnOwner == entity.SideRemote && that.simulated() {
		that.scheduleOpponent()
	}
}

func (that *Session) rematch() {
	that.hostStarts = !that.hostStarts
	that.gameCount++
	that.startGame()
}

func (that *Session) simulated() bool {
	return that.mode == ModeDemo || that.mode == ModeOffline
}

func (that *Session) scheduleOpponent() {
	round := that.round

	that.timers = append(that.timers, that.simulator.Schedule(func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if round != that.round {
			return
		}

		cell, err := that.simulator.PickCell(that.game.Cells)
		if err != nil {
			that.logger.Debug("simulator has no move", "error", err)
			return
		}

		that.applyRemoteMove(cell, that.opponent.Symbol)
	}))
}

// scheduleDemo starts a game against the simulator once the fake connection "completes".
func (that *Session) scheduleDemo(delay time.Duration, opponentName string) {
	epoch := that.epoch

	that.timers = append(that.timers, time.AfterFunc(delay, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if epoch != that.epoch || that.phase != entity.PhaseAwaitingPeer {
			return
		}

		that.opponent.Name = opponentName
		that.startGame()
	}))
}

func (that *Session) cancelTimers() {
	for _, timer := range that.timers {
		timer.Stop()
	}
	that.timers = nil
}

// failAttempt - negotiation failed: drop the link and go back to setup, keeping the method.
func (that *Session) failAttempt(message string) {
	method := that.method

	that.teardownLocked()
	that.resetLocked()

	that.method = method
	that.setStatus(entity.StatusError, message)
}

func (that *Session) teardownLocked() {
	that.epoch++
	that.round++
	that.cancelTimers()

	if that.link != nil {
		that.link.Disconnect()
		that.link = nil
	}
}

func (that *Session) resetLocked() {
	that.linkUp = false
	that.linkLost = false

	that.phase = entity.PhaseSetup
	that.role = entity.RoleNone
	that.method = entity.MethodNone
	that.mode = ModeNone
	that.code = ""
	that.status = entity.NewStatus(entity.StatusNone, msgIdle)

	that.hostStarts = true
	that.game = entity.GameState{}
	that.gameCount = 0
	that.rematchPending = false

	that.local = entity.Player{}
	that.opponent = entity.Player{}
}

func (that *Session) errorMessage(status transport.Status) string {
	hosting := that.role == entity.RoleInitiator

	switch status.Err {
	case transport.ErrorNotFound:
		return msgRoomNotFound
	case transport.ErrorAddressInUse:
		return msgRoomTaken
	case transport.ErrorTimeout:
		if hosting {
			return msgHostTimeout
		}
		return msgJoinTimeout
	case transport.ErrorLinkLost:
		return msgConnectionLost
	}

	reason := defaultFailedReason
	if status.Cause != nil {
		reason = status.Cause.Error()
	}

	if hosting {
		return fmt.Sprintf(msgHostFailed, reason)
	}
	return fmt.Sprintf(msgJoinFailed, reason)
}

func (that *Session) setStatus(kind entity.StatusKind, message string) {
	that.status = entity.NewStatus(kind, message)
	that.notify()
}

func (that *Session) notify() {
	select {
	case that.updates <- struct{}{}:
	default:
	}
}
