package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"vidgate/internal/infra"
	"vidgate/internal/providers/veo"

	"github.com/rs/zerolog"
)

type fakeBackend struct {
	start        func(ctx context.Context, p veo.GenerationParams) (string, error)
	predict      func(ctx context.Context, p veo.GenerationParams) (string, error)
	getOperation func(ctx context.Context, name, apiKey string) (*veo.Operation, error)
	openVideo    func(ctx context.Context, vr veo.VideoRequest) (*veo.VideoStream, error)
}

func (f *fakeBackend) StartGeneration(ctx context.Context, p veo.GenerationParams) (string, error) {
	if f.start != nil {
		return f.start(ctx, p)
	}
	return "", errors.New("start not implemented")
}

func (f *fakeBackend) Predict(ctx context.Context, p veo.GenerationParams) (string, error) {
	if f.predict != nil {
		return f.predict(ctx, p)
	}
	return "", errors.New("predict not implemented")
}

func (f *fakeBackend) GetOperation(ctx context.Context, name, apiKey string) (*veo.Operation, error) {
	if f.getOperation != nil {
		return f.getOperation(ctx, name, apiKey)
	}
	return nil, errors.New("getOperation not implemented")
}

func (f *fakeBackend) OpenVideo(ctx context.Context, vr veo.VideoRequest) (*veo.VideoStream, error) {
	if f.openVideo != nil {
		return f.openVideo(ctx, vr)
	}
	return nil, errors.New("openVideo not implemented")
}

func testConfig() *infra.Config {
	return &infra.Config{
		AppEnv:             "test",
		Port:               "8080",
		GeminiAPIKey:       "server-key",
		VeoMode:            infra.VeoModeAsync,
		VideoHostAllowlist: []string{"upstream"},
	}
}

func newTestApp(cfg *infra.Config, backend VideoBackend) *App {
	if cfg == nil {
		cfg = testConfig()
	}
	return &App{Config: cfg, Logger: zerolog.Nop(), Veo: backend}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}
