package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
)

type ctxKey struct{}

// Handler returns the device API.
func (r *Relay) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(r.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: r.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(r.authenticate)

		api.Get("/session", r.getSession)

		api.Group(func(g chi.Router) {
			g.Use(middleware.AllowContentType("application/json"))
			g.Post("/authorization", r.postAuthorization)
			g.Post("/decodes", r.postDecode)
		})
	})

	return router
}

func (r *Relay) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !ok {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		device, err := parseToken(r.secret, raw)
		if err != nil {
			r.logger.Warn("rejected device token", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, device)))
	})
}

func deviceFrom(ctx context.Context) string {
	device, _ := ctx.Value(ctxKey{}).(string)
	return device
}

type authorizationRequest struct {
	Granted bool `json:"granted"`
}

type authorizationResponse struct {
	Authorization string `json:"authorization"`
}

func (r *Relay) postAuthorization(w http.ResponseWriter, req *http.Request) {
	var body authorizationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	auth := r.authorize(body.Granted)
	r.logger.Info("camera authorization reported", "device", deviceFrom(req.Context()), "authorization", auth)

	r.writeJSON(w, http.StatusOK, authorizationResponse{Authorization: auth.String()})
}

func (r *Relay) getSession(w http.ResponseWriter, _ *http.Request) {
	r.writeJSON(w, http.StatusOK, r.sessionInfo())
}

type decodeRequest struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func (r *Relay) postDecode(w http.ResponseWriter, req *http.Request) {
	var body decodeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := r.deliver(camera.Decode{
		Symbology: camera.Symbology(strings.ToLower(body.Type)),
		Text:      body.Data,
	})

	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, errFiltered):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, camera.ErrNoSession), errors.Is(err, errSessionBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (r *Relay) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Error("failed to encode response", "error", err)
	}
}
