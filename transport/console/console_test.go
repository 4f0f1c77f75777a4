package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/share"
	"github.com/rocketscienceinc/tictactoe-peer/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionMock struct {
	mock.Mock

	updates chan struct{}
}

func newSessionMock(view usecase.View) *sessionMock {
	session := &sessionMock{updates: make(chan struct{})}
	session.On("Snapshot").Maybe().Return(view)

	return session
}

func (that *sessionMock) Snapshot() usecase.View {
	args := that.Called()
	return args.Get(0).(usecase.View) //nolint: forcetypeassert // it's ok
}

func (that *sessionMock) Updates() <-chan struct{} {
	return that.updates
}

func (that *sessionMock) SetPlayerName(name string) bool {
	return that.Called(name).Bool(0)
}

func (that *sessionMock) SelectTransportMethod(method entity.Method) bool {
	return that.Called(method).Bool(0)
}

func (that *sessionMock) Host(ctx context.Context) (string, bool) {
	args := that.Called(ctx)
	return args.String(0), args.Bool(1)
}

func (that *sessionMock) Join(ctx context.Context, code string) bool {
	return that.Called(ctx, code).Bool(0)
}

func (that *sessionMock) AutoJoin(ctx context.Context, link share.Link, confirm func(share.Link) bool) bool {
	return that.Called(ctx, link, confirm).Bool(0)
}

func (that *sessionMock) PlayOffline() bool {
	return that.Called().Bool(0)
}

func (that *sessionMock) AttemptMove(index int) bool {
	return that.Called(index).Bool(0)
}

func (that *sessionMock) RequestNewGame() bool {
	return that.Called().Bool(0)
}

func (that *sessionMock) ShareRendezvousCode() (share.Invite, bool) {
	args := that.Called()
	return args.Get(0).(share.Invite), args.Bool(1) //nolint: forcetypeassert // it's ok
}

func (that *sessionMock) Disconnect() {
	that.Called()
}

func runConsole(t *testing.T, session gameSession, input, link string) string {
	t.Helper()

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := New(logger, session, strings.NewReader(input), &out).Run(context.Background(), link)
	require.NoError(t, err)

	return out.String()
}

func TestConsole_Commands(t *testing.T) {
	t.Run("Commands reach the session", func(t *testing.T) {
		// Given: a session in setup
		session := newSessionMock(usecase.View{Phase: entity.PhaseSetup})
		session.On("SetPlayerName", "Alice Smith").Return(true).Once()
		session.On("SelectTransportMethod", entity.Method("webrtc")).Return(true).Once()
		session.On("Join", mock.Anything, "ab12").Return(true).Once()
		session.On("AttemptMove", 4).Return(true).Once()
		session.On("RequestNewGame").Return(true).Once()
		session.On("PlayOffline").Return(true).Once()
		session.On("Disconnect").Return().Once()

		// When: the user types a command per line
		runConsole(t, session, "name Alice Smith\nmethod webrtc\njoin ab12\nmove 5\nnew\nplay\ndisconnect\nquit\n", "")

		// Then: every command was forwarded once
		session.AssertExpectations(t)
	})

	t.Run("Host prints the code", func(t *testing.T) {
		// Given: hosting succeeds
		session := newSessionMock(usecase.View{Phase: entity.PhaseAwaitingPeer, Code: "AB12"})
		session.On("Host", mock.Anything).Return("AB12", true).Once()

		// When: the user hosts
		out := runConsole(t, session, "host\n", "")

		// Then: the code is shown
		assert.Contains(t, out, "Your game code is AB12")
		session.AssertExpectations(t)
	})

	t.Run("Share prints the invite", func(t *testing.T) {
		// Given: a hosted room
		session := newSessionMock(usecase.View{})
		invite := share.Invite{Text: "Join my game! Code: AB12\ntictactoe://join?code=AB12&method=webrtc"}
		session.On("ShareRendezvousCode").Return(invite, true).Once()

		// When: the user asks for the invite
		out := runConsole(t, session, "share\n", "")

		// Then: the invite text is printed
		assert.Contains(t, out, invite.Text)
	})

	t.Run("Bad input never reaches the session", func(t *testing.T) {
		// Given: a session that expects nothing
		session := newSessionMock(usecase.View{})

		// When: the user types invalid commands
		out := runConsole(t, session, "move 0\nmove ten\njoin\ndance\n\n", "")

		// Then: usage hints are printed
		assert.Contains(t, out, "usage: move <1-9>")
		assert.Contains(t, out, "usage: join <code>")
		assert.Contains(t, out, `unknown command "dance"`)
		session.AssertNotCalled(t, "AttemptMove", mock.Anything)
		session.AssertNotCalled(t, "Join", mock.Anything, mock.Anything)
	})

	t.Run("Rejected move is reported", func(t *testing.T) {
		// Given: a session that refuses the move
		session := newSessionMock(usecase.View{})
		session.On("AttemptMove", 0).Return(false).Once()

		// When: the user moves
		out := runConsole(t, session, "move 1\n", "")

		// Then: the refusal is shown
		assert.Contains(t, out, "move: not allowed right now")
	})

	t.Run("Quit stops reading", func(t *testing.T) {
		// Given: commands after quit
		session := newSessionMock(usecase.View{})

		// When: the user quits first
		runConsole(t, session, "quit\nmove 1\n", "")

		// Then: nothing after quit runs
		session.AssertNotCalled(t, "AttemptMove", mock.Anything)
	})
}

func TestConsole_Link(t *testing.T) {
	t.Run("Confirmed link joins", func(t *testing.T) {
		// Given: a share link on start
		session := newSessionMock(usecase.View{})
		confirmed := false
		session.On("AutoJoin", mock.Anything, share.Link{Code: "AB12", Method: entity.MethodWebRTC}, mock.Anything).
			Run(func(args mock.Arguments) {
				confirm := args.Get(2).(func(share.Link) bool) //nolint: forcetypeassert // it's ok
				confirmed = confirm(args.Get(1).(share.Link))  //nolint: forcetypeassert // it's ok
			}).
			Return(true).Once()

		// When: the user answers yes
		out := runConsole(t, session, "y\n", "tictactoe://join?code=AB12&method=webrtc")

		// Then: the prompt was shown and accepted
		assert.Contains(t, out, "Join game AB12 via WebRTC? [y/N]")
		assert.True(t, confirmed)
		session.AssertExpectations(t)
	})

	t.Run("Any other answer declines", func(t *testing.T) {
		// Given: a share link on start
		session := newSessionMock(usecase.View{})
		confirmed := true
		session.On("AutoJoin", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				confirm := args.Get(2).(func(share.Link) bool) //nolint: forcetypeassert // it's ok
				confirmed = confirm(args.Get(1).(share.Link))  //nolint: forcetypeassert // it's ok
			}).
			Return(false).Once()

		// When: the user just presses enter
		runConsole(t, session, "\n", "tictactoe://join?code=AB12")

		// Then: the join is declined
		assert.False(t, confirmed)
	})

	t.Run("Link without a code is ignored", func(t *testing.T) {
		// Given: a link missing the code
		session := newSessionMock(usecase.View{})

		// When: the console starts with it
		out := runConsole(t, session, "", "tictactoe://join?method=webrtc")

		// Then: no join is offered
		assert.NotContains(t, out, "Join game")
		session.AssertNotCalled(t, "AutoJoin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Consumed link does not fire again after disconnect", func(t *testing.T) {
		// Given: a share link the user declines
		session := newSessionMock(usecase.View{})
		session.On("AutoJoin", mock.Anything, share.Link{Code: "AB12", Method: entity.MethodWebRTC}, mock.Anything).
			Run(func(args mock.Arguments) {
				confirm := args.Get(2).(func(share.Link) bool) //nolint: forcetypeassert // it's ok
				confirm(args.Get(1).(share.Link))              //nolint: forcetypeassert // it's ok
			}).
			Return(false).Once()
		session.On("Disconnect").Return().Twice()

		// When: the user disconnects twice
		out := runConsole(t, session, "n\ndisconnect\ndisconnect\n", "tictactoe://join?code=AB12&method=webrtc&lang=en")

		// Then: the link was offered exactly once
		session.AssertNumberOfCalls(t, "AutoJoin", 1)
		assert.Equal(t, 1, strings.Count(out, "Join game AB12"))
		session.AssertExpectations(t)
	})
}

func TestRender(t *testing.T) {
	t.Run("Empty cells show their numbers", func(t *testing.T) {
		// Given: a game with two marks
		view := usecase.View{
			Phase:          entity.PhasePlaying,
			MySymbol:       entity.X,
			OpponentSymbol: entity.O,
			LocalName:      "Alice",
			OpponentName:   "Bob",
			Game:           entity.NewGameState(entity.SideLocal),
		}
		view.Game.Cells[0] = entity.X
		view.Game.Cells[4] = entity.O

		// When: it is rendered
		var out bytes.Buffer
		Render(&out, view)

		// Then: the board, players and turn are shown
		assert.Contains(t, out.String(), " X | 2 | 3\n---+---+---\n 4 | O | 6\n")
		assert.Contains(t, out.String(), "Alice (X) vs Bob (O), game #1")
		assert.Contains(t, out.String(), "Your turn: move <1-9>")
	})

	t.Run("Outcome replaces the turn line", func(t *testing.T) {
		// Given: a game the opponent won
		view := usecase.View{Phase: entity.PhaseEnded, MySymbol: entity.X, OpponentSymbol: entity.O, OpponentName: "Bob"}
		view.Game.Ended = true
		view.Game.Outcome = entity.Outcome{Kind: entity.OutcomeWin, Winner: entity.O, Line: [3]int{0, 1, 2}}

		// When: it is rendered
		var out bytes.Buffer
		Render(&out, view)

		// Then: the loss is shown
		assert.Contains(t, out.String(), "Bob wins.")
	})

	t.Run("Setup shows only the status", func(t *testing.T) {
		// Given: a status before any game
		view := usecase.View{
			Phase:  entity.PhaseAwaitingPeer,
			Code:   "AB12",
			Status: entity.NewStatus(entity.StatusLoading, "Waiting for opponent..."),
		}

		// When: it is rendered
		var out bytes.Buffer
		Render(&out, view)

		// Then: no board is drawn
		assert.NotContains(t, out.String(), "---+")
		assert.Contains(t, out.String(), "Game code: AB12")
		assert.Contains(t, out.String(), "[loading] Waiting for opponent...")
	})
}
