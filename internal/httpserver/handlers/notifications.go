package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
)

// Notifications returns recent open failures, oldest first. ?since=<seq>
// skips the ones a client has already seen.
func Notifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since uint64
		if v := r.URL.Query().Get("since"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				writeError(w, d.Logger, &domain.ValidationError{Field: "since", Reason: "must be a non-negative integer"})
				return
			}
			since = n
		}
		writeJSON(w, http.StatusOK, d.Session.Notifications(since))
	}
}
