package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-peer/internal/config"
	"github.com/rocketscienceinc/tictactoe-peer/internal/repository"
	"github.com/rocketscienceinc/tictactoe-peer/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-peer/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/tictactoe-peer/internal/service"
	"github.com/rocketscienceinc/tictactoe-peer/internal/transport"
	"github.com/rocketscienceinc/tictactoe-peer/internal/transport/websocket"
	"github.com/rocketscienceinc/tictactoe-peer/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-peer/transport/console"
)

// RunApp - runs the application. link is an optional share link to join on start.
func RunApp(logger *slog.Logger, conf *config.Config, link string) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rooms, closeRooms := openRooms(ctx, log, conf)
	defer closeRooms()

	session := newSession(logger, conf, rooms)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer stop()

		log.Info("Starting console", "driver", conf.Signaling.Driver)
		if err := console.New(logger, session, os.Stdin, os.Stdout).Run(groupCtx, link); err != nil {
			return fmt.Errorf("console error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		log.Info("Shutting down")
		session.Disconnect()

		return nil
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("application stopped: %w", err)
	}

	return nil
}

// newSession - the session with a peer factory bound to rooms.
func newSession(logger *slog.Logger, conf *config.Config, rooms repository.RoomRepository) *usecase.Session {
	newTransport := func() transport.Transport {
		return websocket.NewPeer(logger, rooms, websocket.Options{
			ListenHost:     conf.Peer.ListenHost,
			AdvertiseHost:  conf.Peer.AdvertiseHost,
			ConnectTimeout: conf.Peer.ConnectTimeout,
			WriteTimeout:   conf.Peer.WriteTimeout,
			RoomTTL:        conf.Signaling.RoomTTL,
		})
	}

	opponent := service.NewOpponent(conf.Game.SimulatorDelay, nil)

	return usecase.NewSession(logger, newTransport, opponent, usecase.SessionOptions{
		PlayerName:    conf.PlayerName,
		DemoHostDelay: conf.Game.DemoHostDelay,
		DemoJoinDelay: conf.Game.DemoJoinDelay,
		ShareBaseURL:  conf.Share.BaseURL,
	})
}

// openRooms - connects the registry chosen by the signaling driver.
// When it cannot be opened the game still runs offline and in demo mode; direct links report the failure.
func openRooms(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomRepository, func()) {
	rooms, closeRooms, err := connectRooms(ctx, log, conf)
	if err != nil {
		log.Error("signaling unavailable, direct links disabled", "driver", conf.Signaling.Driver, "error", err)
		return repository.NewUnavailableRoomRepository(), func() {}
	}

	return rooms, closeRooms
}

func connectRooms(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomRepository, func(), error) {
	switch conf.Signaling.Driver {
	case config.DriverRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Signaling.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRoomRepository(redisStorage.Connection), closeWith(log, redisStorage, "redis"), nil

	case config.DriverSQLite:
		sqliteStorage, err := sqlite.New(conf.Signaling.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteRoomRepository(sqliteStorage.Connection), closeWith(log, sqliteStorage, "sqlite"), nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, conf.Signaling.Driver)
	}
}

func closeWith(log *slog.Logger, storage io.Closer, name string) func() {
	return func() {
		if err := storage.Close(); err != nil {
			log.Error("could not close storage", "storage", name, "error", err)
		}
	}
}
