package nfce_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/nfscan/internal/nfce"
)

const mercadoX = `{"loja":"Mercado X","cnpj":"00.000.000/0001-00","data_emissao":"2024-01-01","total":19.9,` +
	`"itens":[{"descricao":"Arroz","quantidade":1,"valor_unitario":19.9,"valor_total":19.9}]}`

const sefazOutage = "Não foi possível consultar a nota fiscal eletrônica na SEFAZ. " +
	"Serviço indisponível no momento, tente novamente mais tarde."

func TestClient_ConsultRequest(t *testing.T) {
	var (
		gotMethod      string
		gotPath        string
		gotContentType string
		gotRequestID   string
		gotBody        map[string]string
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mercadoX))
	}))
	defer ts.Close()

	client := nfce.NewClient(ts.URL + "/")

	// Not a URL at all: forwarded untouched.
	_, err := client.Consult(context.Background(), "not a url ?x=1&y=ç")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/consulta-nfce", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, map[string]string{"url": "not a url ?x=1&y=ç"}, gotBody)
}

func TestClient_Consult(t *testing.T) {
	type testCase struct {
		name    string
		handler http.HandlerFunc
		strict  bool
		verify  func(t *testing.T, err error)
		wantOK  bool
	}

	tests := []testCase{
		{
			name: "Success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(mercadoX))
			},
			wantOK: true,
		},
		{
			name: "Created Counts As Success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(mercadoX))
			},
			wantOK: true,
		},
		{
			name: "Server Error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				body, _ := charmap.Windows1252.NewEncoder().String(sefazOutage)
				w.Write([]byte(body))
			},
			verify: func(t *testing.T, err error) {
				var statusErr *nfce.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
				assert.Equal(t, sefazOutage, statusErr.Body)
			},
		},
		{
			name: "Garbage Body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			},
			verify: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, nfce.ErrPayload)
			},
		},
		{
			name: "Permissive Missing Fields",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"total":3}`))
			},
			wantOK: true,
		},
		{
			name: "Strict Missing Fields",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"total":3}`))
			},
			strict: true,
			verify: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, nfce.ErrPayload)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := nfce.NewClient(ts.URL, nfce.WithStrict(tt.strict))
			got, err := client.Consult(context.Background(), "https://example/nfce?x=1")

			if tt.wantOK {
				require.NoError(t, err)
				assert.NotNil(t, got)

				return
			}

			assert.Nil(t, got)
			tt.verify(t, err)
		})
	}
}

func TestClient_ConsultUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	got, err := nfce.NewClient(url).Consult(context.Background(), "https://example/nfce?x=1")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, nfce.ErrConnection)

	var statusErr *nfce.StatusError
	assert.False(t, errors.As(err, &statusErr))
}
