// Package relay implements the camera capability on top of a paired phone.
// The phone owns the real camera and its OS permission prompt; it reports
// the permission outcome and pushes decoded barcodes over HTTP.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

var (
	errSessionBusy = errors.New("a decode is already pending")
	errFiltered    = errors.New("symbology not accepted")
)

type Relay struct {
	secret  []byte
	origins []string
	logger  *slog.Logger

	mu      sync.Mutex
	auth    camera.Authorization
	decided chan struct{}
	active  *session

	srv *http.Server
}

type Option func(*Relay)

func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(r *Relay) {
		r.origins = origins
	}
}

func New(secret []byte, opts ...Option) *Relay {
	r := &Relay{
		secret:  secret,
		origins: []string{"*"},
		logger:  slog.Default(),
		decided: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start listens on addr and serves the device API in the background.
func (r *Relay) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	r.srv = &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("relay server failed", "error", err)
		}
	}()

	r.logger.Info("relay listening", "addr", ln.Addr().String())

	return nil
}

// Shutdown stops the server and releases any open session.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()

	if active != nil {
		_ = active.Close()
	}

	if r.srv == nil {
		return nil
	}

	return r.srv.Shutdown(ctx)
}

// RequestAuthorization waits for the paired phone to report its camera
// permission. There is no timeout beyond ctx.
func (r *Relay) RequestAuthorization(ctx context.Context) (camera.Authorization, error) {
	select {
	case <-r.decided:
	case <-ctx.Done():
		return camera.AuthorizationUnknown, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.auth, nil
}

func (r *Relay) Open(_ context.Context, filter camera.Filter) (camera.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.auth != camera.AuthorizationGranted {
		return nil, fmt.Errorf("opening session: camera %s", r.auth)
	}

	if r.active != nil {
		return nil, camera.ErrSessionOpen
	}

	s := &session{
		id:     uuid.New(),
		filter: filter,
		ch:     make(chan camera.Decode, 1),
		relay:  r,
	}
	r.active = s

	r.logger.Debug("scan session opened", "session", s.id)

	return s, nil
}

// authorize records the first permission report; later reports are ignored.
func (r *Relay) authorize(granted bool) camera.Authorization {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.auth != camera.AuthorizationUnknown {
		return r.auth
	}

	r.auth = camera.AuthorizationDenied
	if granted {
		r.auth = camera.AuthorizationGranted
	}

	close(r.decided)

	return r.auth
}

func (r *Relay) deliver(d camera.Decode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return camera.ErrNoSession
	}

	if !r.active.filter.Allows(d.Symbology) {
		return fmt.Errorf("%w: %q", errFiltered, d.Symbology)
	}

	select {
	case r.active.ch <- d:
		return nil
	default:
		return errSessionBusy
	}
}

type sessionInfo struct {
	Active      bool               `json:"active"`
	ID          string             `json:"id,omitempty"`
	Symbologies []camera.Symbology `json:"symbologies,omitempty"`
}

func (r *Relay) sessionInfo() sessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return sessionInfo{}
	}

	return sessionInfo{
		Active:      true,
		ID:          r.active.id.String(),
		Symbologies: r.active.filter.Symbologies,
	}
}

type session struct {
	id     uuid.UUID
	filter camera.Filter
	ch     chan camera.Decode
	relay  *Relay
	closed bool
}

func (s *session) Decodes() <-chan camera.Decode {
	return s.ch
}

func (s *session) Close() error {
	r := s.relay

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.ch)

	if r.active == s {
		r.active = nil
	}

	r.logger.Debug("scan session closed", "session", s.id)

	return nil
}
