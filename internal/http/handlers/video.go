package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"vidgate/internal/domain"
	"vidgate/internal/middleware"
	"vidgate/internal/providers/veo"
)

// Video streams the upstream video behind the uri query parameter through
// the gateway, attaching the credential the client cannot hold. Bytes are
// copied straight through, never buffered.
func (a *App) Video(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("uri"))
	if raw == "" {
		a.error(w, r, domain.Validation("uri query parameter is required"))
		return
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		a.error(w, r, domain.Validation("uri must be an absolute http(s) URL"))
		return
	}
	if !a.hostAllowed(parsed.Hostname()) {
		a.error(w, r, domain.Auth(http.StatusForbidden, "video host not allowed"))
		return
	}
	key, _ := a.resolveCredential(r, "")
	if key == "" {
		a.error(w, r, domain.Auth(http.StatusUnauthorized, ""))
		return
	}

	stream, err := a.Veo.OpenVideo(r.Context(), veo.VideoRequest{
		URI:    raw,
		APIKey: key,
		Range:  r.Header.Get("Range"),
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	defer stream.Body.Close()

	contentType := stream.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)
	if stream.ContentLength != "" {
		w.Header().Set("Content-Length", stream.ContentLength)
	}
	if stream.ContentRange != "" {
		w.Header().Set("Content-Range", stream.ContentRange)
	}
	if stream.AcceptRanges != "" {
		w.Header().Set("Accept-Ranges", stream.AcceptRanges)
	}
	w.WriteHeader(stream.Status)

	if _, err := io.Copy(w, stream.Body); err != nil {
		// headers are gone; all we can do is note the broken stream
		a.Logger.Warn().
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Err(err).
			Msg("video stream interrupted")
	}
}

// hostAllowed checks the video URI host against the configured allowlist.
// An empty allowlist disables the restriction.
func (a *App) hostAllowed(host string) bool {
	if len(a.Config.VideoHostAllowlist) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range a.Config.VideoHostAllowlist {
		if host == allowed {
			return true
		}
	}
	return false
}
