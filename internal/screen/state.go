// Package screen holds the scan screen's state, the transitions that mutate
// it and the pure mapping from state to layout.
package screen

import (
	"errors"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
	"github.com/MrJamesThe3rd/nfscan/internal/invoice"
	"github.com/MrJamesThe3rd/nfscan/internal/nfce"
)

// User-facing failure messages. Causes are logged, never shown.
const (
	MsgConnectionFailed  = "Falha ao conectar com o servidor. Tente novamente."
	MsgProcessingFailed  = "Não foi possível processar a nota fiscal."
	MsgCameraUnavailable = "Não foi possível abrir a câmera."
)

// State is owned by a single screen instance.
type State struct {
	Camera         camera.Authorization
	Scanning       bool
	LastDecodedURL string
	Invoice        *invoice.Invoice
	Fetching       bool
	FetchError     string
}

func (s *State) SetAuthorization(a camera.Authorization) {
	s.Camera = a
}

// StartScan reports whether the viewfinder may be activated.
func (s *State) StartScan() bool {
	if s.Camera != camera.AuthorizationGranted || s.Scanning {
		return false
	}

	s.Scanning = true

	return true
}

func (s *State) StopScan() {
	s.Scanning = false
}

// Decoded records the payload of the session's first decode and ends the
// session. It reports false if no session was scanning.
func (s *State) Decoded(text string) bool {
	if !s.Scanning {
		return false
	}

	s.LastDecodedURL = text
	s.Scanning = false

	return true
}

// BeginFetch clears any previous result before the request goes out.
func (s *State) BeginFetch() {
	s.Fetching = true
	s.FetchError = ""
	s.Invoice = nil
}

// FinishFetch applies a fetch outcome as one update.
func (s *State) FinishFetch(inv *invoice.Invoice, err error) {
	defer func() { s.Fetching = false }()

	if err != nil {
		s.Invoice = nil
		s.FetchError = FailureMessage(err)

		return
	}

	s.FetchError = ""
	s.Invoice = inv
}

// FailureMessage maps a fetch error to its generic user message.
func FailureMessage(err error) string {
	if errors.Is(err, nfce.ErrConnection) {
		return MsgConnectionFailed
	}

	return MsgProcessingFailed
}
