package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/session"
)

type entryResponse struct {
	ID              string `json:"id"`
	Position        int    `json:"position"`
	Kind            string `json:"kind"`
	Reference       string `json:"reference"`
	IntervalMinutes int    `json:"interval_minutes"`
}

type entryRequest struct {
	Kind            string `json:"kind,omitempty"`
	Reference       string `json:"reference"`
	IntervalMinutes int    `json:"interval_minutes"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (req entryRequest) input() session.Input {
	return session.Input{
		Kind:            domain.Kind(req.Kind),
		Reference:       req.Reference,
		IntervalMinutes: req.IntervalMinutes,
	}
}

func toEntryResponse(e domain.Entry, pos int) entryResponse {
	return entryResponse{
		ID:              e.ID,
		Position:        pos,
		Kind:            string(e.Ref.Kind),
		Reference:       e.Ref.Value,
		IntervalMinutes: e.IntervalMinutes,
	}
}

// ListEntries returns the entry list in display order.
func ListEntries(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Session.Entries()
		out := make([]entryResponse, 0, len(entries))
		for i, e := range entries {
			out = append(out, toEntryResponse(e, i))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// CreateEntry appends one entry. The kind is derived from the reference
// when omitted.
func CreateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		e, err := d.Session.Add(r.Context(), req.input())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		pos, _ := d.Session.Index().Position(e.ID)
		writeJSON(w, http.StatusCreated, toEntryResponse(e, pos))
	}
}

// UpdateEntry replaces the reference and interval of the entry named in the path.
func UpdateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		id := chi.URLParam(r, "id")
		e, err := d.Session.Edit(r.Context(), id, req.input())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		pos, _ := d.Session.Index().Position(e.ID)
		writeJSON(w, http.StatusOK, toEntryResponse(e, pos))
	}
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteEntries removes every ID in the body with a single save.
func DeleteEntries(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		n, err := d.Session.Delete(r.Context(), req.IDs)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
	}
}
