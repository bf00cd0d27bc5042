package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the store answers a ping. Backends without a
// ping (the JSON file) are always ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStore(r.Context(), d); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func pingStore(parent context.Context, d deps.Deps) error {
	if d.StorePing == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()
	return d.StorePing(ctx)
}

func now(d deps.Deps) time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
