package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/share"
	"github.com/rocketscienceinc/tictactoe-peer/internal/usecase"
)

var (
	errQuit       = errors.New("quit")
	errUsage      = errors.New("usage")
	errNotAllowed = errors.New("not allowed right now")
)

const helpText = `Commands:
  name <name>        set your display name
  method <name>      webrtc | bluetooth | hotspot | qr
  host               create a game room
  join <code>        join a game room
  play               play offline against the computer
  move <1-9>         place your mark
  new                rematch after a game
  share              print the invite link
  status             redraw the board
  disconnect         leave and start over
  quit               exit
`

type gameSession interface {
	Snapshot() usecase.View
	Updates() <-chan struct{}
	SetPlayerName(name string) bool
	SelectTransportMethod(method entity.Method) bool
	Host(ctx context.Context) (string, bool)
	Join(ctx context.Context, code string) bool
	AutoJoin(ctx context.Context, link share.Link, confirm func(share.Link) bool) bool
	PlayOffline() bool
	AttemptMove(index int) bool
	RequestNewGame() bool
	ShareRendezvousCode() (share.Invite, bool)
	Disconnect()
}

type handler func(ctx context.Context, args []string) error

// Console - line based front-end driving a game session.
type Console struct {
	logger  *slog.Logger
	session gameSession
	in      io.Reader
	out     io.Writer

	outMu sync.Mutex
	lines chan string

	// location - the share link the console was opened with; code and method are cleared once consumed.
	location string

	handlers map[string]handler
}

func New(logger *slog.Logger, session gameSession, in io.Reader, out io.Writer) *Console {
	console := &Console{
		logger:  logger.With("component", "console"),
		session: session,
		in:      in,
		out:     out,

		lines: make(chan string),
	}

	console.handlers = map[string]handler{
		"help":       console.handleHelp,
		"name":       console.handleName,
		"method":     console.handleMethod,
		"host":       console.handleHost,
		"join":       console.handleJoin,
		"play":       console.handlePlay,
		"move":       console.handleMove,
		"new":        console.handleNew,
		"share":      console.handleShare,
		"status":     console.handleStatus,
		"disconnect": console.handleDisconnect,
		"quit":       console.handleQuit,
	}

	return console
}

// Run - reads commands until quit, EOF or ctx is done. link is an optional share link to join.
func (that *Console) Run(ctx context.Context, link string) error {
	log := that.logger.With("method", "Run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go that.readLines(ctx)
	go that.watch(ctx)

	that.printf("%s", helpText)
	that.render()

	that.location = link
	that.autoJoin(ctx)

	for {
		line, ok := that.readLine(ctx)
		if !ok {
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		command, found := that.handlers[strings.ToLower(fields[0])]
		if !found {
			that.printf("unknown command %q, type 'help'\n", fields[0])
			continue
		}

		err := command(ctx, fields[1:])
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			log.Debug("command failed", "command", fields[0], "error", err)
			that.printf("%s\n", err)
		}
	}
}

// autoJoin - offers to join the game in location, at most once per link.
func (that *Console) autoJoin(ctx context.Context) {
	link, ok := share.ParseURL(that.location)
	if !ok {
		return
	}

	that.location = share.ClearURL(that.location)
	that.logger.Debug("share link consumed", "location", that.location)

	confirm := func(link share.Link) bool {
		that.printf("Join game %s via %s? [y/N] ", link.Code, link.Method.DisplayName())

		answer, ok := that.readLine(ctx)
		if !ok {
			return false
		}

		answer = strings.ToLower(strings.TrimSpace(answer))

		return answer == "y" || answer == "yes"
	}

	if !that.session.AutoJoin(ctx, link, confirm) {
		that.render()
	}
}

func (that *Console) readLines(ctx context.Context) {
	scanner := bufio.NewScanner(that.in)
	for scanner.Scan() {
		select {
		case that.lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		that.logger.Error("failed to read input", "error", err)
	}

	close(that.lines)
}

func (that *Console) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-that.lines:
		return line, ok
	}
}

func (that *Console) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-that.session.Updates():
			that.render()
		}
	}
}

func (that *Console) render() {
	view := that.session.Snapshot()

	that.outMu.Lock()
	defer that.outMu.Unlock()

	Render(that.out, view)
}

func (that *Console) printf(format string, args ...any) {
	that.outMu.Lock()
	defer that.outMu.Unlock()

	_, _ = fmt.Fprintf(that.out, format, args...)
}

func (that *Console) handleHelp(_ context.Context, _ []string) error {
	that.printf("%s", helpText)
	return nil
}

func (that *Console) handleName(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: name <name>", errUsage)
	}

	if !that.session.SetPlayerName(strings.Join(args, " ")) {
		return fmt.Errorf("name: %w", errNotAllowed)
	}

	return nil
}

func (that *Console) handleMethod(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: method <webrtc|bluetooth|hotspot|qr>", errUsage)
	}

	that.session.SelectTransportMethod(entity.Method(args[0]))

	return nil
}

func (that *Console) handleHost(ctx context.Context, _ []string) error {
	code, ok := that.session.Host(ctx)
	if !ok {
		return fmt.Errorf("host: %w", errNotAllowed)
	}

	that.printf("Your game code is %s\n", code)

	return nil
}

func (that *Console) handleJoin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: join <code>", errUsage)
	}

	that.session.Join(ctx, args[0])

	return nil
}

func (that *Console) handlePlay(_ context.Context, _ []string) error {
	if !that.session.PlayOffline() {
		return fmt.Errorf("play: %w", errNotAllowed)
	}

	return nil
}

func (that *Console) handleMove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: move <1-9>", errUsage)
	}

	cell, err := strconv.Atoi(args[0])
	if err != nil || cell < 1 || cell > entity.BoardSize {
		return fmt.Errorf("%w: move <1-9>", errUsage)
	}

	if !that.session.AttemptMove(cell - 1) {
		return fmt.Errorf("move: %w", errNotAllowed)
	}

	return nil
}

func (that *Console) handleNew(_ context.Context, _ []string) error {
	if !that.session.RequestNewGame() {
		return fmt.Errorf("new: %w", errNotAllowed)
	}

	return nil
}

func (that *Console) handleShare(_ context.Context, _ []string) error {
	invite, ok := that.session.ShareRendezvousCode()
	if !ok {
		return fmt.Errorf("share: %w", errNotAllowed)
	}

	that.printf("%s\n", invite.Text)

	return nil
}

func (that *Console) handleStatus(_ context.Context, _ []string) error {
	that.render()
	return nil
}

func (that *Console) handleDisconnect(ctx context.Context, _ []string) error {
	that.session.Disconnect()
	that.autoJoin(ctx)

	return nil
}

func (that *Console) handleQuit(_ context.Context, _ []string) error {
	return errQuit
}
