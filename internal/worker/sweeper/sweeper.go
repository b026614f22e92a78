package sweeper

import (
	"context"
	"fmt"
	"tavolo/config"
	"tavolo/infras/otel"
	resModel "tavolo/internal/domains/reservation/model"
	resRepo "tavolo/internal/domains/reservation/repository"
	settingsModel "tavolo/internal/domains/settings/model"
	settingsRepo "tavolo/internal/domains/settings/repository"
	tableModel "tavolo/internal/domains/table/model"
	tableRepo "tavolo/internal/domains/table/repository"
	"tavolo/internal/notification"
	"tavolo/shared"
	"tavolo/shared/cache"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/timezone"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "sweeper"

	leaderKey  = "sweeper:leader"
	sweepActor = "system:sweeper"
)

// Sweeper walks overdue reservations and retires them. Every flip is a
// compare-and-set on the reservation version, so a sweep racing an admin
// action, or a second sweeper instance, silently loses instead of
// double-writing or double-notifying.
type Sweeper struct {
	reservations resRepo.Reservation
	tables       tableRepo.Table
	settings     settingsRepo.Settings
	dispatcher   notification.Dispatcher
	cache        cache.RedisCache
	cfg          *config.Config
	otel         otel.Otel
	instanceID   string
}

func New(
	reservations resRepo.Reservation,
	tables tableRepo.Table,
	settings settingsRepo.Settings,
	dispatcher notification.Dispatcher,
	redisCache cache.RedisCache,
	cfg *config.Config,
	otl otel.Otel,
) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		tables:       tables,
		settings:     settings,
		dispatcher:   dispatcher,
		cache:        redisCache,
		cfg:          cfg,
		otel:         otl,
		instanceID:   uuid.NewString(),
	}
}

// Run ticks until the context is cancelled. Each tick takes a short leader
// lease in redis so only one instance sweeps per interval.
func (s *Sweeper) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.Sweeper.IntervalSeconds) * time.Second

	log.Info().Dur("interval", interval).Str("instanceID", s.instanceID).Msg("sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopped")

			return
		case <-ticker.C:
			acquired, err := s.cache.SetNX(ctx, leaderKey, s.instanceID, s.cfg.Sweeper.LeaderTTLSeconds)
			if err != nil {
				log.Error().Err(err).Msg("failed to acquire sweeper lease")

				continue
			}

			if !acquired {
				continue
			}

			if _, err := s.Sweep(ctx, timezone.Now()); err != nil {
				log.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}

// Sweep runs one pass at the given instant and returns how many reservations
// it retired. Disabled settings make it a no-op.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (swept int, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Sweep")
	defer scope.End()
	defer scope.TraceIfError(err)

	policy, err := s.settings.Get(ctx, shared.FilterByID(settingsModel.SingletonID, settingsModel.FieldID, settingsModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to load expiration settings")

		return 0, fmt.Errorf("failed to load expiration settings: %w", err)
	}

	if policy.ID == constant.Empty || !policy.IsEnabled {
		return 0, nil
	}

	candidates, err := s.reservations.GetAll(ctx, gDto.QueryParams{}, candidateFilter(now))
	if err != nil {
		log.Error().Err(err).Msg("failed to load sweep candidates")

		return 0, fmt.Errorf("failed to load sweep candidates: %w", err)
	}

	// Every overdue candidate retires to the same terminal status; the policy
	// decides which one, not the reservation's current status.
	target := resModel.StatusExpired
	if policy.AutoMarkNoShow {
		target = resModel.StatusNoShow
	}

	for i := range candidates {
		r := &candidates[i]

		if !r.OverdueAt(now, policy.ExpirationMinutes) {
			continue
		}

		retired, retireErr := s.retire(ctx, r, target, now)
		if retireErr != nil {
			log.Error().Err(retireErr).Str("reservationID", r.ID).Msg("failed to retire reservation")

			continue
		}

		if !retired {
			continue
		}

		swept++

		if policy.SendExpirationNotification {
			s.notifyExpired(ctx, *r, target)
		}
	}

	if swept > 0 {
		log.Info().Int("swept", swept).Msg("sweep pass retired reservations")
		s.invalidateCaches(ctx)
	}

	if policy.ReminderMinutes > 0 {
		s.remind(ctx, policy, now)
	}

	return swept, nil
}

// remind publishes a reminder for reservations starting within the configured
// window. The reminder_sent flag flips under the same version CAS as every
// other write, so each guest hears at most once.
func (s *Sweeper) remind(ctx context.Context, policy settingsModel.ExpirationSettings, now time.Time) {
	window := time.Duration(policy.ReminderMinutes) * time.Minute

	candidates, err := s.reservations.GetAll(ctx, gDto.QueryParams{}, reminderFilter(now.Add(window)))
	if err != nil {
		log.Error().Err(err).Msg("failed to load reminder candidates")

		return
	}

	for i := range candidates {
		r := &candidates[i]

		startsAt := r.StartsAt()
		if now.After(startsAt) || startsAt.Sub(now) > window {
			continue
		}

		flipped := false

		err := s.reservations.WithTx(ctx, func(tx *sqlx.Tx) error {
			affected, txErr := s.reservations.UpdateTxChecked(ctx, tx, map[string]any{
				resModel.FieldReminderSent: true,
				resModel.FieldVersion:      r.Version + 1,
				constant.FieldModifiedAt:   now,
				constant.FieldModifiedBy:   sweepActor,
			}, casFilter(r.ID, r.Version))
			if txErr != nil {
				return fmt.Errorf("failed to flag reminder: %w", txErr)
			}

			flipped = affected > 0

			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("reservationID", r.ID).Msg("failed to flag reminder")

			continue
		}

		if !flipped {
			continue
		}

		reservation := *r
		reservation.ReminderSent = true

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.dispatcher.NotifyReminder(c, reservation); err != nil {
				log.Error().Err(err).Str("reservationID", reservation.ID).Msg("failed to dispatch reminder")
			}
		}()
	}
}

// retire flips one reservation to its terminal status and frees its table in
// a single transaction. A false return means another writer got there first.
func (s *Sweeper) retire(ctx context.Context, r *resModel.Reservation, target string, now time.Time) (bool, error) {
	mod := map[string]any{
		resModel.FieldStatus:     target,
		resModel.FieldIsExpired:  true,
		resModel.FieldVersion:    r.Version + 1,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: sweepActor,
	}

	if r.TableID != nil {
		mod[resModel.FieldTableID] = nil
	}

	retired := false

	err := s.reservations.WithTx(ctx, func(tx *sqlx.Tx) error {
		affected, txErr := s.reservations.UpdateTxChecked(ctx, tx, mod, casFilter(r.ID, r.Version))
		if txErr != nil {
			return fmt.Errorf("failed to update reservation: %w", txErr)
		}

		if affected == 0 {
			return nil
		}

		retired = true

		if r.TableID != nil {
			released, relErr := s.tables.UpdateTxChecked(ctx, tx, map[string]any{
				tableModel.FieldIsAvailable:          true,
				tableModel.FieldCurrentReservationID: nil,
				constant.FieldModifiedAt:             now,
				constant.FieldModifiedBy:             sweepActor,
			}, shared.FilterByID(*r.TableID, tableModel.FieldID, tableModel.TableName))
			if relErr != nil {
				return fmt.Errorf("failed to release table: %w", relErr)
			}

			if released == 0 {
				log.Warn().Str("tableID", *r.TableID).Msg("table no longer exists, nothing to release")
			}
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	if retired {
		r.Status = target
		r.IsExpired = true
		r.Version++
		r.TableID = nil
	}

	return retired, nil
}

func (s *Sweeper) notifyExpired(ctx context.Context, r resModel.Reservation, target string) {
	go func() {
		c := context.WithoutCancel(ctx)

		r.Status = target

		if err := s.dispatcher.NotifyExpired(c, r); err != nil {
			log.Error().Err(err).Str("reservationID", r.ID).Msg("failed to dispatch expiration notification")
		}
	}()
}

func (s *Sweeper) invalidateCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, "reservation")
		shared.InvalidateCaches(c, s.cache, "stats")
	}()
}

// candidateFilter narrows the scan to live reservations dated today or
// earlier. The exact grace-period cutoff is applied in code because the
// deadline combines date, time, and the configured grace window.
func candidateFilter(now time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    resModel.TableName,
				Field:    resModel.FieldIsExpired,
				Operator: gDto.FilterOperatorEq,
				Value:    false,
			},
			gDto.Filter{
				Table:    resModel.TableName,
				Field:    resModel.FieldStatus,
				Operator: gDto.FilterOperatorIn,
				Value: []string{
					resModel.StatusConfirmed,
					resModel.StatusReserved,
					resModel.StatusBooked,
				},
			},
			gDto.Filter{
				ArgName:  "sweep_date",
				Table:    resModel.TableName,
				Field:    resModel.FieldReservationDate,
				Operator: gDto.FilterOperatorLessEq,
				Value:    now.Format(resModel.DateFormat),
			},
		},
	}
}

// reminderFilter matches unreminded live reservations dated up to the end of
// the reminder window.
func reminderFilter(until time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    resModel.TableName,
				Field:    resModel.FieldReminderSent,
				Operator: gDto.FilterOperatorEq,
				Value:    false,
			},
			gDto.Filter{
				Table:    resModel.TableName,
				Field:    resModel.FieldStatus,
				Operator: gDto.FilterOperatorIn,
				Value: []string{
					resModel.StatusConfirmed,
					resModel.StatusReserved,
					resModel.StatusBooked,
				},
			},
			gDto.Filter{
				ArgName:  "reminder_date",
				Table:    resModel.TableName,
				Field:    resModel.FieldReservationDate,
				Operator: gDto.FilterOperatorLessEq,
				Value:    until.Format(resModel.DateFormat),
			},
		},
	}
}

func casFilter(id string, version int) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    resModel.TableName,
				Field:    resModel.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
			},
			gDto.Filter{
				ArgName:  "expected_version",
				Table:    resModel.TableName,
				Field:    resModel.FieldVersion,
				Operator: gDto.FilterOperatorEq,
				Value:    version,
			},
		},
	}
}
