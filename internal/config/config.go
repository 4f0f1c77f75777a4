package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown signaling driver")

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFile    string    `yaml:"log-file" env:"LOG_FILE"`
	PlayerName string    `yaml:"player-name" env:"PLAYER_NAME"`
	Signaling  Signaling `yaml:"signaling"`
	Peer       Peer      `yaml:"peer"`
	Game       Game      `yaml:"game"`
	Share      Share     `yaml:"share"`
}

// Signaling - where rendezvous codes are registered.
type Signaling struct {
	Driver     string        `yaml:"driver" env:"SIGNALING_DRIVER" env-default:"redis"`
	RoomTTL    time.Duration `yaml:"room-ttl" env:"SIGNALING_ROOM_TTL" env-default:"10m"`
	Redis      Redis         `yaml:"redis"`
	SQLitePath string        `yaml:"sqlite-path" env:"SIGNALING_SQLITE_PATH" env-default:"./rooms.db"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Peer struct {
	ListenHost     string        `yaml:"listen-host" env:"PEER_LISTEN_HOST" env-default:"0.0.0.0"`
	AdvertiseHost  string        `yaml:"advertise-host" env:"PEER_ADVERTISE_HOST" env-default:"127.0.0.1"`
	ConnectTimeout time.Duration `yaml:"connect-timeout" env:"PEER_CONNECT_TIMEOUT" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env:"PEER_WRITE_TIMEOUT" env-default:"5s"`
}

type Game struct {
	SimulatorDelay time.Duration `yaml:"simulator-delay" env:"GAME_SIMULATOR_DELAY" env-default:"1s"`
	DemoHostDelay  time.Duration `yaml:"demo-host-delay" env:"GAME_DEMO_HOST_DELAY" env-default:"3s"`
	DemoJoinDelay  time.Duration `yaml:"demo-join-delay" env:"GAME_DEMO_JOIN_DELAY" env-default:"1s"`
}

type Share struct {
	BaseURL string `yaml:"base-url" env:"SHARE_BASE_URL" env-default:"tictactoe://join"`
}

// Load - reads path when it exists, otherwise the environment alone.
func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	} else {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Signaling.Driver {
	case DriverRedis, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.Signaling.Driver)
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
