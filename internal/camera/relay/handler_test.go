package relay

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

func TestWriteJSON_LogsThroughRelayLogger(t *testing.T) {
	var buf bytes.Buffer
	r := New([]byte("s3cret"), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	rec := httptest.NewRecorder()
	r.writeJSON(rec, http.StatusOK, func() {})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "failed to encode response")
}

func TestRelay_StartShutdown(t *testing.T) {
	r := New([]byte("s3cret"))
	require.NoError(t, r.Start("127.0.0.1:0"))

	r.authorize(true)
	sess, err := r.Open(context.Background(), camera.QROnly())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	_, ok := <-sess.Decodes()
	assert.False(t, ok, "shutdown releases the open session")
}

func TestRelay_StartInvalidAddr(t *testing.T) {
	r := New([]byte("s3cret"))
	assert.Error(t, r.Start("not-an-address"))
}
