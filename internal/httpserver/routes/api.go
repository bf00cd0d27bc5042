package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(controlOnly(d)...)
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        1024,
			TrustProxy:        d.TrustProxy,
		}))

		api.Get("/entries", handlers.ListEntries(d))
		api.Post("/entries", handlers.CreateEntry(d))
		api.Put("/entries/{id}", handlers.UpdateEntry(d))
		api.Delete("/entries", handlers.DeleteEntries(d))

		api.Post("/open", handlers.Open(d))
		api.Post("/stop", handlers.Stop(d))
		api.Get("/chains", handlers.Chains(d))

		api.Get("/notifications", handlers.Notifications(d))
	})
}
