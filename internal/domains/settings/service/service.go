package service

import (
	"context"
	"fmt"
	"tavolo/config"
	"tavolo/infras/otel"
	"tavolo/internal/domains/settings/model"
	"tavolo/internal/domains/settings/model/dto"
	"tavolo/internal/domains/settings/repository"
	"tavolo/shared"
	"tavolo/shared/cache"
	"tavolo/shared/constant"
	"tavolo/shared/failure"

	"github.com/rs/zerolog/log"
)

const cacheGetSettings = "settings:get"

type Settings interface {
	Get(ctx context.Context) (dto.SettingsResponse, error)
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error)
}

type serviceImpl struct {
	repo  repository.Settings
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Settings, cfg *config.Config, redisCache cache.RedisCache, otl otel.Otel) Settings {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: redisCache,
		otel:  otl,
	}
}

// Get returns the expiration policy. The table holds exactly one row; a
// missing row means the seed migration has not run.
func (s *serviceImpl) Get(ctx context.Context) (res dto.SettingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.cache.Get(ctx, cacheGetSettings, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheGetSettings).Msg("cache hit for settings")

		return res, nil
	}

	settings, err := s.repo.Get(ctx, shared.FilterByID(model.SingletonID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get settings")

		return res, fmt.Errorf("failed to get settings: %w", err)
	}

	if settings.ID == constant.Empty {
		return res, failure.NotFound("expiration settings not found") // nolint:wrapcheck
	}

	res.FromModel(settings)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheGetSettings, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save settings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateSettingsRequest) (res dto.SettingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateSettingsRequest{}) {
		return res, failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(model.SingletonID, model.FieldID, model.TableName)

	updatedFields := shared.TransformFields(req, user)
	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update settings")

		return res, fmt.Errorf("failed to update settings: %w", err)
	}

	// Invalidate before re-reading so the response reflects this write.
	if err = s.cache.Delete(ctx, cacheGetSettings); err != nil {
		log.Error().Err(err).Msg("failed to delete settings from cache")
	}

	return s.Get(ctx)
}
