package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/nfscan/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/nfscan/internal/camera"
	"github.com/MrJamesThe3rd/nfscan/internal/camera/relay"
	"github.com/MrJamesThe3rd/nfscan/internal/camera/serial"
	"github.com/MrJamesThe3rd/nfscan/internal/config"
	"github.com/MrJamesThe3rd/nfscan/internal/nfce"
)

const shutdownTimeout = 5 * time.Second

type model struct {
	appName  string
	scanView view.ScanModel
}

func (m model) Init() tea.Cmd {
	return m.scanView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "q":
			m.scanView.Release()
			return m, tea.Quit
		}
	}

	newModel, cmd := m.scanView.Update(msg)
	m.scanView = newModel.(view.ScanModel)

	return m, cmd
}

func (m model) View() string {
	header := lipgloss.NewStyle().Bold(true).Padding(1, 1, 0).Render(m.appName + " · " + m.scanView.Title())
	footer := lipgloss.NewStyle().Padding(0, 1).Render(m.scanView.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, header, m.scanView.View(), footer)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(cfg.Log.File, "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	cam, shutdown, err := newCamera(cfg)
	if err != nil {
		slog.Error("failed to set up camera", "driver", cfg.Camera.Driver, "error", err)
		os.Exit(1)
	}
	defer shutdown()

	client := nfce.NewClient(cfg.NFCe.BackendURL,
		nfce.WithTimeout(cfg.NFCe.Timeout),
		nfce.WithStrict(cfg.NFCe.Strict),
	)

	p := tea.NewProgram(model{
		appName:  cfg.App.Name,
		scanView: view.NewScanModel(cam, client),
	}, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

func newCamera(cfg *config.Config) (camera.Capability, func(), error) {
	switch cfg.Camera.Driver {
	case config.DriverSerial:
		return serial.New(cfg.Serial.Device), func() {}, nil
	default:
		r := relay.New([]byte(cfg.Relay.Secret), relay.WithAllowedOrigins(cfg.Relay.AllowedOrigins))
		if err := r.Start(cfg.Relay.Addr); err != nil {
			return nil, nil, err
		}

		return r, func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := r.Shutdown(ctx); err != nil {
				slog.Error("relay shutdown failed", "error", err)
			}
		}, nil
	}
}
