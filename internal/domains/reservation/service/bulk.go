package service

import (
	"context"
	"fmt"
	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	"tavolo/shared"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/failure"
	"tavolo/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// bulkTargets maps each status-changing bulk action onto the transition it
// applies per reservation.
var bulkTargets = map[string]string{
	dto.ActionConfirm:     model.StatusConfirmed,
	dto.ActionCancel:      model.StatusCancelled,
	dto.ActionReject:      model.StatusRejected,
	dto.ActionAssignTable: model.StatusBooked,
}

// ExecuteBulk applies one action to a set of reservations atomically: every
// target is validated before any write, all writes share one transaction, and
// a single failure rolls the whole batch back.
func (s *serviceImpl) ExecuteBulk(ctx context.Context, req dto.BulkActionRequest) (affected int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExecuteBulk")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"bulk.action": req.Action,
		"bulk.size":   len(req.ReservationIDs),
	})

	ids := dedupe(req.ReservationIDs)

	reservations, err := s.repo.GetAll(ctx, gDto.QueryParams{}, idsFilter(ids))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations for bulk action")

		return 0, fmt.Errorf("failed to get reservations for bulk action: %w", err)
	}

	if len(reservations) != len(ids) {
		return 0, failure.NotFound(fmt.Sprintf("%d of %d reservations not found", len(ids)-len(reservations), len(ids))) // nolint:wrapcheck
	}

	if err = s.validateBulk(ctx, req, reservations); err != nil {
		return 0, err
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := range reservations {
			if txErr := s.applyBulkItem(ctx, tx, req, &reservations[i], user); txErr != nil {
				return txErr
			}
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("action", req.Action).Msg("failed to execute bulk action")

		return 0, err
	}

	s.notifyBulk(ctx, req.Action, reservations)
	s.invalidateBulkCaches(ctx, ids)

	return len(reservations), nil
}

// validateBulk checks every reservation against the action before any write.
func (s *serviceImpl) validateBulk(ctx context.Context, req dto.BulkActionRequest, reservations []model.Reservation) error {
	switch req.Action {
	case dto.ActionConfirm, dto.ActionCancel, dto.ActionReject:
		target := bulkTargets[req.Action]

		for i := range reservations {
			if !model.CanTransition(reservations[i].Status, target) {
				return failure.UnprocessableEntity(fmt.Sprintf("reservation %s cannot transition from %s to %s", reservations[i].ID, reservations[i].Status, target)) // nolint:wrapcheck
			}
		}
	case dto.ActionAssignTable:
		// A table seats one party, so the batch form still targets a single
		// reservation.
		if len(reservations) != 1 {
			return failure.BadRequestFromString("assign-table accepts exactly one reservation") // nolint:wrapcheck
		}

		if !model.CanTransition(reservations[0].Status, model.StatusBooked) {
			return failure.UnprocessableEntity(fmt.Sprintf("reservation %s cannot transition from %s to %s", reservations[0].ID, reservations[0].Status, model.StatusBooked)) // nolint:wrapcheck
		}

		if err := s.guardTableAssignable(ctx, req.TableID, reservations[0].PartySize); err != nil {
			return err
		}
	case dto.ActionSendReminder:
		for i := range reservations {
			if model.IsTerminal(reservations[i].Status) {
				return failure.UnprocessableEntity(fmt.Sprintf("reservation %s is %s and cannot receive a reminder", reservations[i].ID, reservations[i].Status)) // nolint:wrapcheck
			}
		}
	case dto.ActionDelete:
	default:
		return failure.BadRequestFromString(fmt.Sprintf("unknown bulk action %s", req.Action)) // nolint:wrapcheck
	}

	return nil
}

// applyBulkItem writes one reservation inside the batch transaction and
// mirrors the change onto the in-memory model for notification building.
func (s *serviceImpl) applyBulkItem(ctx context.Context, tx *sqlx.Tx, req dto.BulkActionRequest, reservation *model.Reservation, user string) error {
	now := timezone.Now()

	if req.Action == dto.ActionDelete {
		if reservation.TableID != nil {
			if err := s.releaseTableTx(ctx, tx, *reservation.TableID, user); err != nil {
				return err
			}
		}

		if err := s.repo.DeleteTx(ctx, tx, shared.FilterByID(reservation.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to delete reservation %s: %w", reservation.ID, err)
		}

		return nil
	}

	mod := map[string]any{
		model.FieldVersion:       reservation.Version + 1,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: user,
	}

	if req.Notes != constant.Empty {
		mod[model.FieldAdminNotes] = req.Notes
	}

	releasedTable := ""

	switch req.Action {
	case dto.ActionConfirm:
		mod[model.FieldStatus] = model.StatusConfirmed
		mod[model.FieldConfirmationSent] = true
		mod[model.FieldWhatsappSent] = true
	case dto.ActionCancel, dto.ActionReject:
		mod[model.FieldStatus] = bulkTargets[req.Action]

		if reservation.TableID != nil {
			mod[model.FieldTableID] = nil
			releasedTable = *reservation.TableID
		}
	case dto.ActionAssignTable:
		mod[model.FieldStatus] = model.StatusBooked
		mod[model.FieldTableID] = req.TableID
		mod[model.FieldConfirmationSent] = true
		mod[model.FieldWhatsappSent] = true
	case dto.ActionSendReminder:
		mod[model.FieldReminderSent] = true
	}

	affected, err := s.repo.UpdateTxChecked(ctx, tx, mod, versionedFilter(reservation.ID, reservation.Version))
	if err != nil {
		return fmt.Errorf("failed to update reservation %s: %w", reservation.ID, err)
	}

	if affected == 0 {
		return failure.Conflict(fmt.Sprintf("reservation %s was modified by someone else", reservation.ID)) // nolint:wrapcheck
	}

	if releasedTable != constant.Empty {
		if err := s.releaseTableTx(ctx, tx, releasedTable, user); err != nil {
			return err
		}

		reservation.TableID = nil
	}

	if req.Action == dto.ActionAssignTable {
		if err := s.claimTableTx(ctx, tx, req.TableID, reservation.ID, user); err != nil {
			return err
		}

		tableID := req.TableID
		reservation.TableID = &tableID
	}

	if target, ok := bulkTargets[req.Action]; ok {
		reservation.Status = target
	}

	if req.Action == dto.ActionConfirm || req.Action == dto.ActionAssignTable {
		reservation.ConfirmationSent = true
		reservation.WhatsappSent = true
	}

	if req.Action == dto.ActionSendReminder {
		reservation.ReminderSent = true
	}

	reservation.Version++
	reservation.ModifiedAt = now
	reservation.ModifiedBy = user

	return nil
}

// notifyBulk publishes one notification per reservation after the batch has
// committed. Failures are logged only.
func (s *serviceImpl) notifyBulk(ctx context.Context, action string, reservations []model.Reservation) {
	var notify func(context.Context, model.Reservation) error

	switch action {
	case dto.ActionConfirm, dto.ActionAssignTable:
		notify = s.dispatcher.NotifyConfirmed
	case dto.ActionCancel, dto.ActionReject:
		notify = s.dispatcher.NotifyCancelled
	case dto.ActionSendReminder:
		notify = s.dispatcher.NotifyReminder
	default:
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		for i := range reservations {
			if err := notify(c, reservations[i]); err != nil {
				log.Error().Err(err).Str("reservationID", reservations[i].ID).Msg("failed to dispatch bulk notification")
			}
		}
	}()
}

func (s *serviceImpl) invalidateBulkCaches(ctx context.Context, ids []string) {
	go func() {
		c := context.WithoutCancel(ctx)

		for _, id := range ids {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete reservation from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		shared.InvalidateCaches(c, s.cache, cacheStats)
	}()
}

func idsFilter(ids []string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorIn,
				Value:    ids,
			},
		},
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
