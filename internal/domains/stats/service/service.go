package service

import (
	"context"
	"fmt"
	"tavolo/config"
	"tavolo/infras/otel"
	resModel "tavolo/internal/domains/reservation/model"
	resRepo "tavolo/internal/domains/reservation/repository"
	"tavolo/internal/domains/stats/dto"
	tableModel "tavolo/internal/domains/table/model"
	tableRepo "tavolo/internal/domains/table/repository"
	"tavolo/shared/cache"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/timezone"

	"github.com/rs/zerolog/log"
)

const cacheStatsSnapshot = "stats:snapshot"

// Stats aggregates reservation and floor counters for the dashboard. The
// snapshot is read-only and briefly cached; it reuses the domain repositories
// instead of owning tables of its own.
type Stats interface {
	Snapshot(ctx context.Context) (dto.StatsResponse, error)
}

type serviceImpl struct {
	reservations resRepo.Reservation
	tables       tableRepo.Table
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(
	reservations resRepo.Reservation,
	tables tableRepo.Table,
	cfg *config.Config,
	redisCache cache.RedisCache,
	otl otel.Otel,
) Stats {
	return &serviceImpl{
		reservations: reservations,
		tables:       tables,
		cfg:          cfg,
		cache:        redisCache,
		otel:         otl,
	}
}

func (s *serviceImpl) Snapshot(ctx context.Context) (res dto.StatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Snapshot")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.cache.Get(ctx, cacheStatsSnapshot, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheStatsSnapshot).Msg("cache hit for stats snapshot")

		return res, nil
	}

	byStatus, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations by status")

		return res, fmt.Errorf("failed to count reservations by status: %w", err)
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	today := timezone.Now().Format(resModel.DateFormat)

	todayTotal, err := s.reservations.Count(ctx, todayFilter(today, constant.Empty))
	if err != nil {
		log.Error().Err(err).Msg("failed to count today's reservations")

		return res, fmt.Errorf("failed to count today's reservations: %w", err)
	}

	todayPending, err := s.reservations.Count(ctx, todayFilter(today, resModel.StatusPending))
	if err != nil {
		log.Error().Err(err).Msg("failed to count today's pending reservations")

		return res, fmt.Errorf("failed to count today's pending reservations: %w", err)
	}

	totalTables, err := s.tables.Count(ctx, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to count tables")

		return res, fmt.Errorf("failed to count tables: %w", err)
	}

	occupied, err := s.tables.Count(ctx, occupiedFilter())
	if err != nil {
		log.Error().Err(err).Msg("failed to count occupied tables")

		return res, fmt.Errorf("failed to count occupied tables: %w", err)
	}

	avg, err := s.reservations.AveragePartySize(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to average party size")

		return res, fmt.Errorf("failed to average party size: %w", err)
	}

	res = dto.StatsResponse{
		TotalReservations: total,
		ByStatus:          byStatus,
		TodayTotal:        todayTotal,
		TodayPending:      todayPending,
		TotalTables:       totalTables,
		OccupiedTables:    occupied,
		AveragePartySize:  avg,
	}

	if totalTables > 0 {
		res.OccupancyRate = float64(occupied) / float64(totalTables) * 100
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheStatsSnapshot, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save stats snapshot to cache")
		}
	}()

	return res, nil
}

func todayFilter(date, status string) gDto.FilterGroup {
	filters := []any{
		gDto.Filter{
			Table:    resModel.TableName,
			Field:    resModel.FieldReservationDate,
			Operator: gDto.FilterOperatorEq,
			Value:    date,
		},
	}

	if status != constant.Empty {
		filters = append(filters, gDto.Filter{
			Table:    resModel.TableName,
			Field:    resModel.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
		})
	}

	return gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: filters}
}

func occupiedFilter() gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    tableModel.TableName,
				Field:    tableModel.FieldIsAvailable,
				Operator: gDto.FilterOperatorEq,
				Value:    false,
			},
		},
	}
}
