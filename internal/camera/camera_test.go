package camera_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

func TestFilter_Allows(t *testing.T) {
	tests := []struct {
		name   string
		filter camera.Filter
		sym    camera.Symbology
		want   bool
	}{
		{name: "QR Only Accepts QR", filter: camera.QROnly(), sym: camera.SymbologyQR, want: true},
		{name: "QR Only Rejects EAN", filter: camera.QROnly(), sym: camera.SymbologyEAN13, want: false},
		{name: "Empty Accepts Anything", filter: camera.Filter{}, sym: camera.SymbologyPDF417, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Allows(tt.sym))
		})
	}
}

func TestAuthorization_String(t *testing.T) {
	assert.Equal(t, "unknown", camera.AuthorizationUnknown.String())
	assert.Equal(t, "granted", camera.AuthorizationGranted.String())
	assert.Equal(t, "denied", camera.AuthorizationDenied.String())
}
