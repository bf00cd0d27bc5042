package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/handlers"
)

func init() { Register("readyz", registerReadyz) }

// /readyz pings the entry store, so it stays behind the allow list.
func registerReadyz(r chi.Router, d deps.Deps) {
	r.With(operatorOnly(d)...).Get("/readyz", handlers.Readyz(d))
}
