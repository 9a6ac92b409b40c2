package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"vidgate/internal/domain"
	"vidgate/internal/infra"
	"vidgate/internal/middleware"
	"vidgate/internal/providers/veo"
)

// generateRequest tolerates both casings the web page and CLI send.
type generateRequest struct {
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	AspectRatioAlt string `json:"aspectRatio"`
	APIKey         string `json:"api_key"`
	APIKeyAlt      string `json:"apiKey"`
}

type generateResponse struct {
	Success       bool   `json:"success"`
	OperationName string `json:"operationName,omitempty"`
	VideoURL      string `json:"videoUrl,omitempty"`
}

// Generate validates the request, resolves the credential and submits the
// generation upstream. Async mode answers with the operation name to poll;
// sync mode answers with a ready video URL.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, domain.Validation("invalid payload"))
		return
	}
	prompt, err := domain.NormalizePrompt(req.Prompt)
	if err != nil {
		a.error(w, r, err)
		return
	}
	aspect, err := domain.ParseAspectRatio(coalesce(req.AspectRatio, req.AspectRatioAlt))
	if err != nil {
		a.error(w, r, err)
		return
	}
	key, source := a.resolveCredential(r, coalesce(req.APIKey, req.APIKeyAlt))
	if key == "" {
		a.error(w, r, domain.Auth(http.StatusUnauthorized, ""))
		return
	}

	a.Logger.Debug().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Int("prompt_len", len(prompt)).
		Str("aspect_ratio", aspect.String()).
		Str("mode", a.Config.VeoMode).
		Str("credential_source", source).
		Msg("generation submitted")

	params := veo.GenerationParams{Prompt: prompt, AspectRatio: aspect.String(), APIKey: key}

	if a.Config.VeoMode == infra.VeoModeSync {
		uri, err := a.Veo.Predict(r.Context(), params)
		if err != nil {
			a.error(w, r, err)
			return
		}
		a.json(w, http.StatusOK, generateResponse{Success: true, VideoURL: VideoProxyURL("", uri)})
		return
	}

	name, err := a.Veo.StartGeneration(r.Context(), params)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{Success: true, OperationName: name})
}

// VideoProxyURL builds the gateway URL that streams the given upstream video.
// base is empty for same-origin responses.
func VideoProxyURL(base, uri string) string {
	return strings.TrimRight(base, "/") + "/api/video?uri=" + url.QueryEscape(uri)
}

// resolveCredential picks the API key in precedence order: request body,
// Authorization bearer, X-Goog-Api-Key header, then the server credential.
// The returned source label is for logging; the key itself is never logged.
func (a *App) resolveCredential(r *http.Request, bodyKey string) (key, source string) {
	if k := strings.TrimSpace(bodyKey); k != "" {
		return k, "body"
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		fields := strings.Fields(auth)
		if len(fields) == 2 && strings.EqualFold(fields[0], "bearer") {
			return fields[1], "header"
		}
	}
	if k := strings.TrimSpace(r.Header.Get("X-Goog-Api-Key")); k != "" {
		return k, "header"
	}
	if a.Config.GeminiAPIKey != "" {
		return a.Config.GeminiAPIKey, "server"
	}
	return "", ""
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
