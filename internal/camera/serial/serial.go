// Package serial drives hardware QR readers attached in USB serial (CDC)
// mode. Such readers emit one line per read, optionally prefixed with an
// AIM symbology identifier such as "]Q1".
package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

// aimCodes maps the AIM code character (after "]") to a symbology.
var aimCodes = map[byte]camera.Symbology{
	'Q': camera.SymbologyQR,
	'd': camera.SymbologyDataMatrix,
	'C': camera.SymbologyCode128,
	'E': camera.SymbologyEAN13,
	'L': camera.SymbologyPDF417,
}

// Opener opens the device. Tests swap it for an in-memory pipe.
type Opener func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

type Reader struct {
	device string
	open   Opener
	logger *slog.Logger

	mu     sync.Mutex
	active *session
}

type Option func(*Reader)

func WithOpener(o Opener) Option {
	return func(r *Reader) {
		r.open = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

func New(device string, opts ...Option) *Reader {
	r := &Reader{
		device: device,
		open:   openFile,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RequestAuthorization probes the device node. The OS file permission is
// the camera permission: EACCES means denied.
func (r *Reader) RequestAuthorization(_ context.Context) (camera.Authorization, error) {
	f, err := r.open(r.device)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return camera.AuthorizationDenied, nil
		}

		return camera.AuthorizationUnknown, fmt.Errorf("probing %s: %w", r.device, err)
	}

	_ = f.Close()

	return camera.AuthorizationGranted, nil
}

func (r *Reader) Open(_ context.Context, filter camera.Filter) (camera.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, camera.ErrSessionOpen
	}

	f, err := r.open(r.device)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", r.device, err)
	}

	s := &session{
		src:    f,
		filter: filter,
		ch:     make(chan camera.Decode, 1),
		done:   make(chan struct{}),
		reader: r,
	}
	r.active = s

	go s.run()

	return s, nil
}

type session struct {
	src    io.ReadCloser
	filter camera.Filter
	ch     chan camera.Decode
	done   chan struct{}
	once   sync.Once
	reader *Reader
}

func (s *session) Decodes() <-chan camera.Decode {
	return s.ch
}

func (s *session) run() {
	defer close(s.ch)

	sc := bufio.NewScanner(s.src)
	for sc.Scan() {
		d, ok := parseLine(sc.Text())
		if !ok {
			continue
		}

		if !s.filter.Allows(d.Symbology) {
			s.reader.logger.Debug("dropping filtered read", "symbology", d.Symbology)
			continue
		}

		select {
		case s.ch <- d:
		case <-s.done:
			return
		}
	}

	select {
	case <-s.done:
	default:
		if err := sc.Err(); err != nil {
			s.reader.logger.Error("reading serial device", "device", s.reader.device, "error", err)
		}
	}
}

// Close releases the device and unblocks the reader goroutine.
func (s *session) Close() error {
	var err error

	s.once.Do(func() {
		close(s.done)
		err = s.src.Close()

		s.reader.mu.Lock()
		if s.reader.active == s {
			s.reader.active = nil
		}
		s.reader.mu.Unlock()
	})

	return err
}

// parseLine extracts a decode from one reader line. Lines without an AIM
// prefix are assumed to be QR, since that is how NFC-e readers ship.
func parseLine(line string) (camera.Decode, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return camera.Decode{}, false
	}

	if len(line) >= 3 && line[0] == ']' {
		sym, ok := aimCodes[line[1]]
		if !ok {
			sym = camera.Symbology("aim-" + line[1:3])
		}

		text := line[3:]
		if text == "" {
			return camera.Decode{}, false
		}

		return camera.Decode{Symbology: sym, Text: text}, true
	}

	return camera.Decode{Symbology: camera.SymbologyQR, Text: line}, true
}
