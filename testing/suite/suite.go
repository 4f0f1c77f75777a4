package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rocketscienceinc/tictactoe-peer/internal/repository/storage"
)

const (
	containerTTL = 2 * time.Minute
	readyTimeout = 2 * time.Minute

	redisImage = "redis"
	redisTag   = "alpine"
	redisPort  = "6379/tcp"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *storage.RedisStorage
}

// New - a fresh Redis registry backend per test. Skips when docker is unreachable.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	t.Cleanup(cancel)

	pool := dockerPool(t)
	resource := startRedis(t, pool)
	redisStorage := connectRedis(ctx, t, pool, resource)

	return ctx, &Suite{
		T:       t,
		Logger:  slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		Storage: redisStorage,
	}
}

func dockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}

	pool.MaxWait = readyTimeout

	return pool
}

func startRedis(t *testing.T, pool *dockertest.Pool) *dockertest.Resource {
	t.Helper()

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(host *docker.HostConfig) {
		host.AutoRemove = true
		host.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis: %v", err)
	}

	_ = resource.Expire(uint(containerTTL.Seconds()))

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("could not remove redis container: %v", err)
		}
	})

	return resource
}

func connectRedis(ctx context.Context, t *testing.T, pool *dockertest.Pool, resource *dockertest.Resource) *storage.RedisStorage {
	t.Helper()

	addr := resource.GetHostPort(redisPort)

	var redisStorage *storage.RedisStorage
	err := pool.Retry(func() error {
		var err error
		redisStorage, err = storage.NewRedisStorage(ctx, addr)
		return err
	})
	if err != nil {
		t.Fatalf("redis at %s never became ready: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = redisStorage.Close()
	})

	if err = redisStorage.Connection.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush redis: %v", err)
	}

	return redisStorage
}
