package service

import (
	"context"
	"fmt"
	"tavolo/config"
	"tavolo/infras/otel"
	"tavolo/infras/s3"
	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	"tavolo/internal/domains/reservation/repository"
	tableModel "tavolo/internal/domains/table/model"
	tableRepo "tavolo/internal/domains/table/repository"
	"tavolo/internal/notification"
	"tavolo/shared"
	"tavolo/shared/cache"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/failure"
	"tavolo/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"
	cacheStats             = "stats"
)

type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter dto.ReservationFilter) (dto.GetReservationsResponse, error)
	Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	Update(ctx context.Context, req dto.UpdateReservationRequest, id string) error
	Delete(ctx context.Context, id string) error
	Transition(ctx context.Context, id string, req dto.TransitionRequest) (dto.ReservationResponse, error)
	ExecuteBulk(ctx context.Context, req dto.BulkActionRequest) (int, error)
	ExportCSV(ctx context.Context, filter dto.ReservationFilter, archive bool) ([]byte, string, error)
}

type serviceImpl struct {
	repo       repository.Reservation
	tableRepo  tableRepo.Table
	dispatcher notification.Dispatcher
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
	s3         exportArchiver
}

func New(
	repo repository.Reservation,
	tableRepo tableRepo.Table,
	dispatcher notification.Dispatcher,
	cfg *config.Config,
	redisCache cache.RedisCache,
	otl otel.Otel,
	archiver s3.S3,
) Reservation {
	return &serviceImpl{
		repo:       repo,
		tableRepo:  tableRepo,
		dispatcher: dispatcher,
		cfg:        cfg,
		cache:      redisCache,
		otel:       otl,
		s3:         archiver,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	reservation, err := req.ToModel(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse reservation request")

		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, reservation); err != nil {
		log.Error().Err(err).Msg("failed to create reservation")

		return res, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.invalidateListCaches(ctx)

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter dto.ReservationFilter) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	dto.NormalizeSort(&params)
	filterGroup := filter.ToFilterGroup()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, params, filterGroup)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.Count(ctx, params, filterGroup)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filterGroup)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, gDto.QueryParams{}, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateReservationRequest, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()

	if req == (dto.UpdateReservationRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if reservation exists")

		return fmt.Errorf("failed to check if reservation exists: %w", err)
	}

	if !exist {
		log.Error().Msg("reservation not found")

		return failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update reservation")

		return fmt.Errorf("failed to update reservation: %w", err)
	}

	s.invalidateItemCaches(ctx, id)

	return nil
}

// Delete permanently removes a reservation. A held table is released inside
// the same transaction so availability never leaks.
func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	reservation, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		log.Error().Msg("reservation not found")

		return failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if reservation.TableID != nil {
			if txErr := s.releaseTableTx(ctx, tx, *reservation.TableID, user); txErr != nil {
				return txErr
			}
		}

		if err := s.repo.DeleteTx(ctx, tx, filter); err != nil {
			return fmt.Errorf("failed to delete reservation: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to delete reservation")

		return err
	}

	s.invalidateItemCaches(ctx, id)

	return nil
}

// releaseTableTx frees a table inside the caller's transaction. A missing
// table row is tolerated: the reservation-side write must still go through.
// A SQL error is not; it has already poisoned the transaction, so it aborts
// the whole write group.
func (s *serviceImpl) releaseTableTx(ctx context.Context, tx *sqlx.Tx, tableID, user string) error {
	mod := map[string]any{
		tableModel.FieldIsAvailable:          true,
		tableModel.FieldCurrentReservationID: nil,
		constant.FieldModifiedAt:             timezone.Now(),
		constant.FieldModifiedBy:             user,
	}

	filter := shared.FilterByID(tableID, tableModel.FieldID, tableModel.TableName)

	affected, err := s.tableRepo.UpdateTxChecked(ctx, tx, mod, filter)
	if err != nil {
		return fmt.Errorf("failed to release table %s: %w", tableID, err)
	}

	if affected == 0 {
		log.Warn().Str("tableID", tableID).Msg("table no longer exists, nothing to release")
	}

	return nil
}

func (s *serviceImpl) invalidateItemCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		shared.InvalidateCaches(c, s.cache, cacheStats)
	}()
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		shared.InvalidateCaches(c, s.cache, cacheStats)
	}()
}
