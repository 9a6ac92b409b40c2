package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"vidgate/internal/domain"
	"vidgate/internal/infra"
	"vidgate/internal/middleware"
	"vidgate/internal/providers/veo"

	"github.com/rs/zerolog"
)

// VideoBackend is the slice of the upstream client the handlers depend on.
type VideoBackend interface {
	StartGeneration(ctx context.Context, p veo.GenerationParams) (string, error)
	Predict(ctx context.Context, p veo.GenerationParams) (string, error)
	GetOperation(ctx context.Context, name, apiKey string) (*veo.Operation, error)
	OpenVideo(ctx context.Context, vr veo.VideoRequest) (*veo.VideoStream, error)
}

// App carries the dependencies the HTTP handlers share.
type App struct {
	Config *infra.Config
	Logger zerolog.Logger
	Veo    VideoBackend
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, backend VideoBackend) *App {
	return &App{Config: cfg, Logger: logger, Veo: backend}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error renders the standard envelope for any failure. Upstream messages
// pass through verbatim; taxonomy defaults are localized to the request.
func (a *App) error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := domain.AsError(err)
	if !ok {
		e = &domain.Error{Kind: domain.KindUpstream, Status: http.StatusInternalServerError, Err: err}
	}
	locale := middleware.LocaleFromContext(r.Context())
	msg := domain.UserMessage(e, locale)

	a.Logger.Error().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("kind", string(e.Kind)).
		Int("status", e.Status).
		Err(err).
		Msg("request failed")

	a.json(w, e.Status, errorEnvelope{Success: false, Error: errorBody{Code: e.Kind.Code(), Message: msg}})
}

// NotFound and MethodNotAllowed keep chi's fallbacks on the JSON envelope.
func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusNotFound, errorEnvelope{Success: false, Error: errorBody{Code: "not_found", Message: "not found"}})
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusMethodNotAllowed, errorEnvelope{Success: false, Error: errorBody{Code: domain.KindValidation.Code(), Message: "method not allowed"}})
}

// RateLimited renders the envelope for requests rejected by the limiter.
func (a *App) RateLimited(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusTooManyRequests, errorEnvelope{Success: false, Error: errorBody{Code: "rate_limited", Message: "too many requests"}})
}
