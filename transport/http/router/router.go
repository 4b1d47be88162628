package router

import (
	"tripmarket/internal/handlers/agency"
	"tripmarket/internal/handlers/bargain"
	"tripmarket/internal/handlers/booking"
	"tripmarket/internal/handlers/trip"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Agency  agency.Handler
	Trip    trip.Handler
	Booking booking.Handler
	Bargain bargain.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Agency.Router(routerGroup)
		r.DomainHandlers.Trip.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Bargain.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
