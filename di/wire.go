//go:build wireinject
// +build wireinject

package di

import (
	"tavolo/config"
	"tavolo/infras/jwt"
	"tavolo/infras/kafka"
	"tavolo/infras/otel"
	"tavolo/infras/postgres"
	"tavolo/infras/redis"
	"tavolo/infras/s3"
	"tavolo/internal/notification"
	"tavolo/internal/worker/sweeper"
	"tavolo/permissions"
	"tavolo/shared/cache"
	"tavolo/transport/http"
	"tavolo/transport/http/middleware"
	"tavolo/transport/http/router"

	authService "tavolo/internal/domains/auth/service"
	reservationRepository "tavolo/internal/domains/reservation/repository"
	reservationService "tavolo/internal/domains/reservation/service"
	settingsRepository "tavolo/internal/domains/settings/repository"
	settingsService "tavolo/internal/domains/settings/service"
	statsService "tavolo/internal/domains/stats/service"
	tableRepository "tavolo/internal/domains/table/repository"
	tableService "tavolo/internal/domains/table/service"
	userRepository "tavolo/internal/domains/user/repository"
	userService "tavolo/internal/domains/user/service"

	authHandler "tavolo/internal/handlers/auth"
	healthHandler "tavolo/internal/handlers/health"
	reservationHandler "tavolo/internal/handlers/reservation"
	settingsHandler "tavolo/internal/handlers/settings"
	statsHandler "tavolo/internal/handlers/stats"
	tableHandler "tavolo/internal/handlers/table"
	userHandler "tavolo/internal/handlers/user"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	userRepository.New,
	userService.New,
	authService.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	notification.New,
	reservationService.New,
)

var tableDomain = wire.NewSet(
	tableRepository.New,
	tableService.New,
)

var settingsDomain = wire.NewSet(
	settingsRepository.New,
	settingsService.New,
)

var statsDomain = wire.NewSet(
	statsService.New,
)

var domains = wire.NewSet(
	authDomain,
	reservationDomain,
	tableDomain,
	settingsDomain,
	statsDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	healthHandler.New,
	authHandler.New,
	userHandler.New,
	reservationHandler.New,
	tableHandler.New,
	settingsHandler.New,
	statsHandler.New,
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

func InitializeSweeper() *sweeper.Sweeper {
	wire.Build(
		config.Get,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		cache.NewRedisCache,
		reservationRepository.New,
		tableRepository.New,
		settingsRepository.New,
		notification.New,
		sweeper.New,
	)

	return &sweeper.Sweeper{}
}
