//go:build wireinject
// +build wireinject

package di

import (
	"tripmarket/config"
	"tripmarket/infras/identity"
	"tripmarket/infras/kafka"
	"tripmarket/infras/otel"
	"tripmarket/infras/postgres"
	"tripmarket/infras/redis"
	"tripmarket/infras/s3"
	"tripmarket/permissions"
	"tripmarket/shared/cache"
	"tripmarket/transport/http"
	"tripmarket/transport/http/middleware"
	"tripmarket/transport/http/router"

	"github.com/google/wire"

	agencyRepository "tripmarket/internal/domains/agency/repository"
	agencyService "tripmarket/internal/domains/agency/service"
	bargainRepository "tripmarket/internal/domains/bargain/repository"
	bargainService "tripmarket/internal/domains/bargain/service"
	bookingRepository "tripmarket/internal/domains/booking/repository"
	bookingService "tripmarket/internal/domains/booking/service"
	tripRepository "tripmarket/internal/domains/trip/repository"
	tripService "tripmarket/internal/domains/trip/service"

	agencyHandler "tripmarket/internal/handlers/agency"
	bargainHandler "tripmarket/internal/handlers/bargain"
	bookingHandler "tripmarket/internal/handlers/booking"
	tripHandler "tripmarket/internal/handlers/trip"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	identity.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var agencyDomain = wire.NewSet(
	agencyRepository.New,
	agencyService.New,
)

var tripDomain = wire.NewSet(
	tripRepository.New,
	tripRepository.NewImage,
	tripService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var bargainDomain = wire.NewSet(
	bargainRepository.New,
	bargainService.New,
)

var domains = wire.NewSet(
	agencyDomain,
	tripDomain,
	bookingDomain,
	bargainDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	agencyHandler.New,
	tripHandler.New,
	bookingHandler.New,
	bargainHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
