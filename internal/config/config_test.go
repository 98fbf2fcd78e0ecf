package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfscan/internal/config"
)

func TestLoad(t *testing.T) {
	type testCase struct {
		name    string
		env     map[string]string
		verify  func(t *testing.T, cfg *config.Config)
		wantErr error
	}

	tests := []testCase{
		{
			name: "Relay Defaults",
			env:  map[string]string{"RELAY_SECRET": "s3cret"},
			verify: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "http://localhost:3000", cfg.NFCe.BackendURL)
				assert.Equal(t, time.Duration(0), cfg.NFCe.Timeout)
				assert.False(t, cfg.NFCe.Strict)
				assert.Equal(t, config.DriverRelay, cfg.Camera.Driver)
				assert.Equal(t, ":8080", cfg.Relay.Addr)
				assert.Equal(t, []string{"*"}, cfg.Relay.AllowedOrigins)
				assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
			},
		},
		{
			name: "Serial Overrides",
			env: map[string]string{
				"CAMERA_DRIVER":    "serial",
				"SERIAL_DEVICE":    "/dev/ttyUSB1",
				"NFCE_BACKEND_URL": "https://nfce.example",
				"NFCE_TIMEOUT":     "15s",
				"NFCE_STRICT":      "true",
				"LOG_LEVEL":        "debug",
			},
			verify: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DriverSerial, cfg.Camera.Driver)
				assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Device)
				assert.Equal(t, "https://nfce.example", cfg.NFCe.BackendURL)
				assert.Equal(t, 15*time.Second, cfg.NFCe.Timeout)
				assert.True(t, cfg.NFCe.Strict)
				assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
			},
		},
		{
			name:    "Relay Without Secret",
			env:     map[string]string{"CAMERA_DRIVER": "relay"},
			wantErr: config.ErrMissingSecret,
		},
		{
			name:    "Unknown Driver",
			env:     map[string]string{"CAMERA_DRIVER": "webcam"},
			wantErr: config.ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RELAY_SECRET", "")

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}
