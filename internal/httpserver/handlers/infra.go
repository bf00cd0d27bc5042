package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool   `json:"ok"`
	Driver        string `json:"driver,omitempty"`
	EntriesLoaded *int   `json:"entries_loaded,omitempty"`
	ActiveChains  *int   `json:"active_chains,omitempty"`
	LastReload    string `json:"last_reload,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Session.Count()
		active := d.Session.LiveChains()

		storeStatus := componentStatus{
			OK:            true,
			Driver:        d.Session.Backend(),
			EntriesLoaded: &entries,
			LastReload:    formatReload(d.Session.Index().GetLastReload()),
		}
		if err := pingStore(r.Context(), d); err != nil {
			storeStatus.OK = false
			storeStatus.Error = err.Error()
		} else if err := d.Session.LoadError(); err != nil {
			storeStatus.OK = false
			storeStatus.Error = err.Error()
		}

		components := map[string]componentStatus{
			"store": storeStatus,
			"scheduler": {
				OK:           true,
				ActiveChains: &active,
			},
		}
		if d.Reloads != nil {
			components["reloader"] = componentStatus{
				OK:         true,
				LastReload: formatReload(d.Reloads.LastReload()),
			}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func formatReload(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func determineStatus(components map[string]componentStatus) string {
	// The store is the only component whose failure loses user data.
	if st, ok := components["store"]; ok && !st.OK {
		return "degraded"
	}
	return "ok"
}
