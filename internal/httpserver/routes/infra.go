package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/handlers"
)

func init() { Register("infra", registerInfra) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.With(operatorOnly(d)...).Get("/infra", handlers.Infra(d))
}
