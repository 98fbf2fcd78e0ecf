// Package camera describes the platform capability that grants camera
// access and reports decoded barcodes. Drivers live in subpackages.
package camera

import (
	"context"
	"errors"
	"slices"
)

//go:generate mockgen -source=camera.go -destination=camera_mock.go -package=camera

var (
	// ErrNoSession is returned when a decode arrives and no session is open.
	ErrNoSession = errors.New("no scan session open")
	// ErrSessionOpen is returned by drivers that support one session at a time.
	ErrSessionOpen = errors.New("scan session already open")
)

// Authorization is the camera permission as reported by the platform.
type Authorization int

const (
	AuthorizationUnknown Authorization = iota
	AuthorizationGranted
	AuthorizationDenied
)

func (a Authorization) String() string {
	switch a {
	case AuthorizationGranted:
		return "granted"
	case AuthorizationDenied:
		return "denied"
	}

	return "unknown"
}

// Symbology names a barcode family.
type Symbology string

const (
	SymbologyQR         Symbology = "qr"
	SymbologyDataMatrix Symbology = "datamatrix"
	SymbologyCode128    Symbology = "code128"
	SymbologyEAN13      Symbology = "ean13"
	SymbologyPDF417     Symbology = "pdf417"
)

// Decode is one recognized barcode.
type Decode struct {
	Symbology Symbology
	Text      string
}

// Filter restricts which symbologies a session reports.
type Filter struct {
	Symbologies []Symbology
}

// Allows reports whether s passes the filter. An empty filter allows all.
func (f Filter) Allows(s Symbology) bool {
	return len(f.Symbologies) == 0 || slices.Contains(f.Symbologies, s)
}

// QROnly is the filter used when scanning NFC-e receipts.
func QROnly() Filter {
	return Filter{Symbologies: []Symbology{SymbologyQR}}
}

// Capability is the platform camera.
type Capability interface {
	// RequestAuthorization blocks until the platform decides or ctx ends.
	RequestAuthorization(ctx context.Context) (Authorization, error)
	// Open activates the viewfinder. Decodes outside filter are never delivered.
	Open(ctx context.Context, filter Filter) (Session, error)
}

// Session is an active viewfinder. Close releases the camera.
type Session interface {
	// Decodes is closed once the session ends.
	Decodes() <-chan Decode
	Close() error
}
