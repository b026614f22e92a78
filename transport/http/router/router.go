package router

import (
	"tavolo/internal/handlers/auth"
	"tavolo/internal/handlers/health"
	"tavolo/internal/handlers/reservation"
	"tavolo/internal/handlers/settings"
	"tavolo/internal/handlers/stats"
	"tavolo/internal/handlers/table"
	"tavolo/internal/handlers/user"
	"tavolo/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Health      health.Handler
	Auth        auth.Handler
	User        user.Handler
	Reservation reservation.Handler
	Table       table.Handler
	Settings    settings.Handler
	Stats       stats.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Health.Router(routerGroup)
		r.DomainHandlers.Auth.Router(routerGroup)

		routerGroup.Group(func(protected chi.Router) {
			protected.Use(r.AuthRole.APIKey)
			protected.Use(r.AuthRole.Auth)
			protected.Use(r.AuthRole.RBAC)

			r.DomainHandlers.User.Router(protected)
			r.DomainHandlers.Reservation.Router(protected)
			r.DomainHandlers.Table.Router(protected)
			r.DomainHandlers.Settings.Router(protected)
			r.DomainHandlers.Stats.Router(protected)
		})
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
