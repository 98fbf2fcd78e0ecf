package screen

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

const (
	LabelStartScan  = "Escanear Nota"
	LabelCancelScan = "Cancelar leitura"

	currencyPrefix = "R$ "
)

type Mode int

const (
	ModePermissionPending Mode = iota
	ModePermissionDenied
	ModeReady
)

// Body is what sits under the scan controls in ModeReady.
type Body int

const (
	BodyNone Body = iota
	BodyLoading
	BodyError
	BodyResult
	BodyEmpty
)

type Layout struct {
	Mode        Mode
	ButtonLabel string
	Viewfinder  bool
	Body        Body
}

// Resolve picks the layout for s. It has no side effects.
func Resolve(s State) Layout {
	switch s.Camera {
	case camera.AuthorizationUnknown:
		return Layout{Mode: ModePermissionPending}
	case camera.AuthorizationDenied:
		return Layout{Mode: ModePermissionDenied}
	}

	l := Layout{
		Mode:        ModeReady,
		ButtonLabel: LabelStartScan,
		Viewfinder:  s.Scanning,
	}

	if s.Scanning {
		l.ButtonLabel = LabelCancelScan
	}

	switch {
	case s.Fetching:
		l.Body = BodyLoading
	case s.FetchError != "":
		l.Body = BodyError
	case s.Invoice != nil:
		l.Body = BodyResult
	case !s.Scanning:
		l.Body = BodyEmpty
	}

	return l
}

// FormatCurrency renders d with exactly two decimal places.
func FormatCurrency(d decimal.Decimal) string {
	return currencyPrefix + d.StringFixed(2)
}

// FormatQuantity renders a quantity without padding zeros ("1", "0.355").
func FormatQuantity(d decimal.Decimal) string {
	return d.String()
}
