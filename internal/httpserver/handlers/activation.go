package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/logger"
	"github.com/MrSnakeDoc/mysa/internal/scheduler"
)

type openResponse struct {
	Started []scheduler.Snapshot `json:"started"`
}

type stopResponse struct {
	Cancelled int `json:"cancelled"`
}

// Open activates the entries named in the body, or all of them when the
// body is empty or lists no IDs. It returns as soon as the chains are queued.
func Open(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := decodeBody(w, r, &req, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		var chains []*scheduler.Chain
		if len(req.IDs) == 0 {
			chains = d.Session.OpenAll()
		} else {
			var err error
			if chains, err = d.Session.OpenSelected(req.IDs); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		started := make([]scheduler.Snapshot, 0, len(chains))
		for _, c := range chains {
			started = append(started, c.Snapshot())
		}
		d.Logger.Debug("open requested",
			logger.Int("chains", len(chains)),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusAccepted, openResponse{Started: started})
	}
}

// Stop cancels every chain started since the previous stop.
func Stop(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := d.Session.StopAll()
		writeJSON(w, http.StatusOK, stopResponse{Cancelled: n})
	}
}

// Chains lists the live chains.
func Chains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Active())
	}
}
