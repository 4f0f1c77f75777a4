package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-peer/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-peer/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-peer/internal/transport"
	"github.com/rocketscienceinc/tictactoe-peer/pkg/handlers"
	"nhooyr.io/websocket"
)

const (
	outboxSize        = 32
	releaseTimeout    = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	peerPathPrefix = "/peer/"
)

var (
	errConnectTimeout = errors.New("connection attempt timed out")
	errAttemptStarted = errors.New("transport already used for an attempt")
)

type roomRegistry interface {
	Register(ctx context.Context, room *entity.Room, ttl time.Duration) error
	Lookup(ctx context.Context, code string) (*entity.Room, error)
	Release(ctx context.Context, code, hostID string) error
}

type Options struct {
	ListenHost     string
	AdvertiseHost  string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	RoomTTL        time.Duration
}

type state int

const (
	stateIdle state = iota
	stateConnecting
	stateListening
	stateAccepting
	stateOpen
	stateClosed
)

// Peer - a direct WebSocket link between two players, found through a room registry.
type Peer struct {
	logger *slog.Logger
	rooms  roomRegistry
	opts   Options
	id     string

	events *dispatcher
	outbox chan []byte

	mu         sync.Mutex
	state      state
	code       string
	cancel     context.CancelFunc
	conn       *websocket.Conn
	srv        *http.Server
	registered bool

	onMessage func(protocol.Message)
	onStatus  func(transport.Status)
}

func NewPeer(logger *slog.Logger, rooms roomRegistry, opts Options) *Peer {
	id := pkg.GeneratePeerID()

	return &Peer{
		logger: logger.With("component", "peer", "peer_id", id),
		rooms:  rooms,
		opts:   opts,
		id:     id,

		events: newDispatcher(),
		outbox: make(chan []byte, outboxSize),
	}
}

func (that *Peer) ID() string {
	return that.id
}

func (that *Peer) OnMessage(handler func(protocol.Message)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onMessage = handler
}

func (that *Peer) OnStatusChange(handler func(transport.Status)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onStatus = handler
}

func (that *Peer) HostUnderCode(ctx context.Context, code string) {
	log := that.logger.With("method", "HostUnderCode", "code", code)

	attemptCtx, ok := that.begin(ctx, code)
	if !ok {
		log.Error("host attempt rejected", "error", errAttemptStarted)
		that.emit(transport.Status{Kind: transport.StatusError, Err: transport.ErrorFailed, Cause: errAttemptStarted})
		return
	}

	log.Info("hosting room")
	that.emit(transport.Status{Kind: transport.StatusConnecting})

	go that.host(attemptCtx, code)
}

func (that *Peer) JoinByCode(ctx context.Context, code string) bool {
	log := that.logger.With("method", "JoinByCode", "code", code)

	if len(code) != pkg.CodeLength {
		log.Debug("code rejected", "length", len(code))
		return false
	}

	attemptCtx, ok := that.begin(ctx, code)
	if !ok {
		log.Error("join attempt rejected", "error", errAttemptStarted)
		return false
	}

	log.Info("joining room")
	that.emit(transport.Status{Kind: transport.StatusConnecting})

	go that.join(attemptCtx, code)

	return true
}

func (that *Peer) Send(msg protocol.Message) bool {
	log := that.logger.With("method", "Send", "type", msg.Type)

	data, err := protocol.Encode(msg)
	if err != nil {
		log.Error("failed to encode message", "error", err)
		return false
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != stateOpen {
		return false
	}

	select {
	case that.outbox <- data:
		return true
	default:
		log.Warn("outbox is full, message dropped")
		return false
	}
}

func (that *Peer) Disconnect() {
	that.events.stop()

	if that.shutdown() {
		that.logger.Info("disconnected")
	}
}

// begin moves an idle peer into an attempt bound to ctx.
func (that *Peer) begin(ctx context.Context, code string) (context.Context, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != stateIdle {
		return nil, false
	}

	attemptCtx, cancel := context.WithCancel(ctx)

	that.state = stateConnecting
	that.code = code
	that.cancel = cancel

	return attemptCtx, true
}

func (that *Peer) host(ctx context.Context, code string) {
	log := that.logger.With("method", "host", "code", code)

	listener, err := net.Listen("tcp", net.JoinHostPort(that.opts.ListenHost, "0"))
	if err != nil {
		that.abort(transport.ErrorFailed, fmt.Errorf("could not listen: %w", err))
		return
	}

	router := mux.NewRouter()
	router.HandleFunc("/ping", handlers.NewPingHandler(that.id)).Methods(http.MethodGet)
	router.HandleFunc(peerPathPrefix+"{code}", func(w http.ResponseWriter, r *http.Request) {
		that.acceptPeer(ctx, w, r)
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	that.mu.Lock()
	if that.state != stateConnecting {
		that.mu.Unlock()
		_ = listener.Close()
		return
	}
	that.srv = srv
	that.mu.Unlock()

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("endpoint stopped serving", "error", serveErr)
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port //nolint: forcetypeassert // tcp listener
	room := &entity.Room{
		Code:   code,
		Addr:   net.JoinHostPort(that.opts.AdvertiseHost, strconv.Itoa(port)),
		HostID: that.id,
	}

	regCtx, cancel := context.WithTimeoutCause(ctx, that.opts.ConnectTimeout, errConnectTimeout)
	defer cancel()

	if err = that.rooms.Register(regCtx, room, that.opts.RoomTTL); err != nil {
		kind := transport.ErrorFailed
		switch {
		case errors.Is(err, apperror.ErrRoomTaken):
			kind = transport.ErrorAddressInUse
		case errors.Is(context.Cause(regCtx), errConnectTimeout):
			kind = transport.ErrorTimeout
		}

		log.Error("could not register room", "error", err, "kind", kind)
		that.abort(kind, err)

		return
	}

	that.mu.Lock()
	if that.state != stateConnecting {
		that.mu.Unlock()
		that.releaseRoom(code)
		return
	}
	that.state = stateListening
	that.registered = true
	that.mu.Unlock()

	log.Info("room registered", "addr", room.Addr)
	that.emit(transport.Status{Kind: transport.StatusReady})
}

// acceptPeer - upgrades the first matching joiner; anyone else is turned away.
func (that *Peer) acceptPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "acceptPeer")

	code := mux.Vars(r)["code"]
	peerID := r.Header.Get(handlers.HeaderPeerID)

	that.mu.Lock()
	switch {
	case code != that.code:
		that.mu.Unlock()
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case that.state != stateListening:
		that.mu.Unlock()
		http.Error(w, "room is busy", http.StatusConflict)
		return
	}
	that.state = stateAccepting
	that.mu.Unlock()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Error("failed to accept peer", "error", err)

		that.mu.Lock()
		if that.state == stateAccepting {
			that.state = stateListening
		}
		that.mu.Unlock()

		return
	}

	if !that.open(conn, stateAccepting) {
		_ = conn.Close(websocket.StatusGoingAway, "host left")
		return
	}

	log.Info("peer joined", "remote_peer", peerID)
	that.emit(transport.Status{Kind: transport.StatusPeerJoined, Peer: peerID})
	that.emit(transport.Status{Kind: transport.StatusConnected, Peer: peerID})

	go that.releaseRoom(code)

	// the handler owns the hijacked connection until the link is done
	that.serve(ctx, conn)
}

func (that *Peer) join(ctx context.Context, code string) {
	log := that.logger.With("method", "join", "code", code)

	// the dial context must outlive the handshake, it is the link context afterwards
	linkCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	timer := time.AfterFunc(that.opts.ConnectTimeout, func() {
		cancel(errConnectTimeout)
	})
	defer timer.Stop()

	room, err := that.rooms.Lookup(linkCtx, code)
	if err != nil {
		kind := transport.ErrorFailed
		switch {
		case errors.Is(err, apperror.ErrRoomNotFound):
			kind = transport.ErrorNotFound
		case errors.Is(context.Cause(linkCtx), errConnectTimeout):
			kind = transport.ErrorTimeout
		}

		log.Error("could not find room", "error", err, "kind", kind)
		that.abort(kind, err)

		return
	}

	target := url.URL{Scheme: "ws", Host: room.Addr, Path: peerPathPrefix + code}

	conn, resp, err := websocket.Dial(linkCtx, target.String(), &websocket.DialOptions{ //nolint: bodyclose // websocket.Dial owns the body
		HTTPHeader: http.Header{handlers.HeaderPeerID: []string{that.id}},
	})
	if err != nil {
		kind := transport.ErrorFailed
		switch {
		case errors.Is(context.Cause(linkCtx), errConnectTimeout):
			kind = transport.ErrorTimeout
		case resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict):
			kind = transport.ErrorNotFound
		}

		log.Error("could not dial host", "error", err, "kind", kind, "addr", room.Addr)
		that.abort(kind, err)

		return
	}

	if !timer.Stop() {
		_ = conn.Close(websocket.StatusGoingAway, "timed out")
		that.abort(transport.ErrorTimeout, errConnectTimeout)
		return
	}

	if !that.open(conn, stateConnecting) {
		_ = conn.Close(websocket.StatusGoingAway, "guest left")
		return
	}

	log.Info("connected to host", "remote_peer", room.HostID)
	that.emit(transport.Status{Kind: transport.StatusConnected, Peer: room.HostID})

	that.serve(linkCtx, conn)
}

func (that *Peer) open(conn *websocket.Conn, from state) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != from {
		return false
	}

	that.state = stateOpen
	that.conn = conn

	return true
}

// serve - reads until the link fails; a writer goroutine drains the outbox.
func (that *Peer) serve(ctx context.Context, conn *websocket.Conn) {
	log := that.logger.With("method", "serve")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go that.writeLoop(ctx, conn)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			that.linkDown(err)
			return
		}

		if typ != websocket.MessageText {
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug("inbound message ignored", "error", err)
			continue
		}

		that.deliver(msg)
	}
}

func (that *Peer) writeLoop(ctx context.Context, conn *websocket.Conn) {
	log := that.logger.With("method", "writeLoop")

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-that.outbox:
			writeCtx, cancel := context.WithTimeout(ctx, that.opts.WriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				if ctx.Err() == nil {
					log.Error("failed to write message", "error", err)
				}
				_ = conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (that *Peer) linkDown(cause error) {
	if !that.shutdown() {
		return
	}

	that.logger.Info("link lost", "error", cause, "close_status", websocket.CloseStatus(cause))
	that.emit(transport.Status{Kind: transport.StatusClosed, Err: transport.ErrorLinkLost, Cause: cause})
}

// abort tears the attempt down, then reports it.
func (that *Peer) abort(kind transport.ErrorKind, cause error) {
	if !that.shutdown() {
		return
	}

	that.emit(transport.Status{Kind: transport.StatusError, Err: kind, Cause: cause})
}

// shutdown releases everything the peer holds. Reports whether this call did the work.
func (that *Peer) shutdown() bool {
	that.mu.Lock()
	if that.state == stateClosed {
		that.mu.Unlock()
		return false
	}

	wasAttempting := that.state != stateIdle
	that.state = stateClosed

	conn, srv, cancel := that.conn, that.srv, that.cancel
	registered, code := that.registered, that.code
	that.conn, that.srv, that.cancel, that.registered = nil, nil, nil, false
	that.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if conn != nil {
		// Close waits for the close handshake
		go func() {
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
		}()
	}

	if srv != nil {
		if err := srv.Close(); err != nil {
			that.logger.Error("failed to close endpoint", "error", err)
		}
	}

	if registered {
		go that.releaseRoom(code)
	}

	return wasAttempting
}

func (that *Peer) releaseRoom(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	that.mu.Lock()
	that.registered = false
	that.mu.Unlock()

	if err := that.rooms.Release(ctx, code, that.id); err != nil {
		that.logger.Error("failed to release room", "code", code, "error", err)
	}
}

func (that *Peer) emit(status transport.Status) {
	that.events.post(func() {
		that.mu.Lock()
		handler := that.onStatus
		that.mu.Unlock()

		if handler != nil {
			handler(status)
		}
	})
}

func (that *Peer) deliver(msg protocol.Message) {
	that.events.post(func() {
		that.mu.Lock()
		handler := that.onMessage
		that.mu.Unlock()

		if handler != nil {
			handler(msg)
		}
	})
}
