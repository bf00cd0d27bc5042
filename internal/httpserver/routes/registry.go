// Package routes holds the HTTP surface. Each file registers its group from
// init and server.NewRouter mounts them all.
package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mysa/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mysa/internal/httpserver/mw"
	"github.com/MrSnakeDoc/mysa/internal/logger"
)

// Registrar mounts one route group. It may mount nothing when the
// dependency the group serves is not configured.
type Registrar func(r chi.Router, d deps.Deps)

type group struct {
	name string
	reg  Registrar
}

var groups []group

// Register adds a named group. The name only shows up in logs.
func Register(name string, reg Registrar) {
	groups = append(groups, group{name: name, reg: reg})
}

// RegisterAll mounts every group in registration order.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		g.reg(r, d)
		d.Logger.Debug("route group mounted", logger.String("group", g.name))
	}
}

// operatorOnly guards read-only endpoints meant for whoever runs mysa.
func operatorOnly(d deps.Deps) chi.Middlewares {
	return chi.Chain(mw.AllowCIDRs(d.AllowedCIDRS, d.TrustProxy, d.Logger))
}

// controlOnly guards endpoints that change state: network allow list plus
// the Host check that keeps DNS-rebound pages out.
func controlOnly(d deps.Deps) chi.Middlewares {
	return chi.Chain(
		mw.AllowCIDRs(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
}
