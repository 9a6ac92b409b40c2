package handlers

import (
	"net/http"
	"strings"

	"vidgate/internal/domain"
)

// Operation relays one poll of an upstream operation. The body is the
// upstream long-running operation document; polling a finished operation
// keeps answering 200 with done=true.
func (a *App) Operation(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		a.error(w, r, domain.Validation("name query parameter is required"))
		return
	}
	key, _ := a.resolveCredential(r, "")
	if key == "" {
		a.error(w, r, domain.Auth(http.StatusUnauthorized, ""))
		return
	}
	op, err := a.Veo.GetOperation(r.Context(), name, key)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, op)
}
