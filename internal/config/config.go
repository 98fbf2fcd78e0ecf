package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var (
	ErrUnknownDriver = errors.New("unknown camera driver")
	ErrMissingSecret = errors.New("relay driver requires RELAY_SECRET")
)

type CameraDriver string

const (
	DriverRelay  CameraDriver = "relay"
	DriverSerial CameraDriver = "serial"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"nfscan"`
	}

	NFCe struct {
		BackendURL string        `envconfig:"NFCE_BACKEND_URL" default:"http://localhost:3000"`
		Timeout    time.Duration `envconfig:"NFCE_TIMEOUT" default:"0"`
		Strict     bool          `envconfig:"NFCE_STRICT" default:"false"`
	}

	Camera struct {
		Driver CameraDriver `envconfig:"CAMERA_DRIVER" default:"relay"`
	}

	Relay struct {
		Addr           string   `envconfig:"RELAY_ADDR" default:":8080"`
		Secret         string   `envconfig:"RELAY_SECRET"`
		AllowedOrigins []string `envconfig:"RELAY_ALLOWED_ORIGINS" default:"*"`
	}

	Serial struct {
		Device string `envconfig:"SERIAL_DEVICE" default:"/dev/ttyACM0"`
	}

	Log struct {
		File  string `envconfig:"LOG_FILE" default:"nfscan.log"`
		Level string `envconfig:"LOG_LEVEL" default:"info"`
	}
}

// LogLevel maps LOG_LEVEL onto a slog level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

func (c *Config) validate() error {
	switch c.Camera.Driver {
	case DriverRelay:
		if c.Relay.Secret == "" {
			return ErrMissingSecret
		}
	case DriverSerial:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Camera.Driver)
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
