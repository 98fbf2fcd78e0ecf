// Command pairtoken mints the bearer token a phone uses to act as the
// camera for the relay driver.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/nfscan/internal/camera/relay"
	"github.com/MrJamesThe3rd/nfscan/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Camera.Driver != config.DriverRelay {
		slog.Error("pairing only applies to the relay driver", "driver", cfg.Camera.Driver)
		os.Exit(1)
	}

	var (
		device string
		ttl    = 30 * 24 * time.Hour
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("device").
				Title("Device name").
				Placeholder("pixel-7").
				Value(&device).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("device name cannot be empty")
					}
					return nil
				}),

			huh.NewSelect[time.Duration]().
				Key("ttl").
				Title("Valid for").
				Options(
					huh.NewOption("1 day", 24*time.Hour),
					huh.NewOption("30 days", 30*24*time.Hour),
					huh.NewOption("1 year", 365*24*time.Hour),
				).
				Value(&ttl),
		),
	).WithWidth(50)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130)
		}

		slog.Error("failed to read pairing details", "error", err)
		os.Exit(1)
	}

	token, err := relay.IssueToken([]byte(cfg.Relay.Secret), strings.TrimSpace(device), ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
