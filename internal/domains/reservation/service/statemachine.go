package service

import (
	"context"
	"fmt"
	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	tableModel "tavolo/internal/domains/table/model"
	"tavolo/shared"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/failure"
	"tavolo/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Transition moves a reservation along one edge of the status graph. The
// reservation write, the table claim or release, and the version bump commit
// in one transaction; notifications go out only after the commit succeeds.
func (s *serviceImpl) Transition(ctx context.Context, id string, req dto.TransitionRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"reservation.id":     id,
		"transition.target":  req.TargetStatus,
		"transition.tableID": req.TableID,
	})

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if req.ExpectedVersion > 0 && reservation.Version != req.ExpectedVersion {
		return res, failure.Conflict("reservation was modified by someone else") // nolint:wrapcheck
	}

	target := req.TargetStatus
	if !model.CanTransition(reservation.Status, target) {
		return res, failure.UnprocessableEntity(fmt.Sprintf("cannot transition reservation from %s to %s", reservation.Status, target)) // nolint:wrapcheck
	}

	assigning := target == model.StatusBooked && req.TableID != constant.Empty
	if req.TableID != constant.Empty && target != model.StatusBooked {
		return res, failure.BadRequestFromString("a table can only be assigned when booking") // nolint:wrapcheck
	}

	if assigning {
		if err = s.guardTableAssignable(ctx, req.TableID, reservation.PartySize); err != nil {
			return res, err
		}
	}

	releasing := model.IsTerminal(target) && reservation.TableID != nil

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	now := timezone.Now()

	mod := map[string]any{
		model.FieldStatus:        target,
		model.FieldVersion:       reservation.Version + 1,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: user,
	}

	if req.Notes != constant.Empty {
		mod[model.FieldAdminNotes] = req.Notes
	}

	if assigning {
		mod[model.FieldTableID] = req.TableID
	}

	if releasing {
		mod[model.FieldTableID] = nil
	}

	// The confirmation goes out on the WhatsApp channel downstream; both sent
	// flags flip on the write that queues it.
	if target == model.StatusConfirmed || target == model.StatusBooked {
		mod[model.FieldConfirmationSent] = true
		mod[model.FieldWhatsappSent] = true
	}

	if target == model.StatusExpired {
		mod[model.FieldIsExpired] = true
	}

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		affected, txErr := s.repo.UpdateTxChecked(ctx, tx, mod, versionedFilter(id, reservation.Version))
		if txErr != nil {
			return fmt.Errorf("failed to update reservation: %w", txErr)
		}

		if affected == 0 {
			return failure.Conflict("reservation was modified by someone else") // nolint:wrapcheck
		}

		if assigning {
			if txErr = s.claimTableTx(ctx, tx, req.TableID, id, user); txErr != nil {
				return txErr
			}
		}

		if releasing {
			if txErr = s.releaseTableTx(ctx, tx, *reservation.TableID, user); txErr != nil {
				return txErr
			}
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("reservationID", id).Msg("failed to transition reservation")

		return res, err
	}

	updated := reservation
	updated.Status = target
	updated.Version = reservation.Version + 1
	updated.ModifiedAt = now
	updated.ModifiedBy = user

	if req.Notes != constant.Empty {
		updated.AdminNotes = req.Notes
	}

	if assigning {
		tableID := req.TableID
		updated.TableID = &tableID
	}

	if releasing {
		updated.TableID = nil
	}

	if target == model.StatusConfirmed || target == model.StatusBooked {
		updated.ConfirmationSent = true
		updated.WhatsappSent = true
	}

	if target == model.StatusExpired {
		updated.IsExpired = true
	}

	s.notifyTransition(ctx, updated)
	s.invalidateItemCaches(ctx, id)

	res.FromModel(updated)

	return res, nil
}

// guardTableAssignable rejects an assignment before the transaction opens.
// Availability is re-checked inside the transaction; this pre-check exists to
// return capacity and not-found errors without consuming a tx.
func (s *serviceImpl) guardTableAssignable(ctx context.Context, tableID string, partySize int) error {
	table, err := s.tableRepo.Get(ctx, shared.FilterByID(tableID, tableModel.FieldID, tableModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return fmt.Errorf("failed to get table: %w", err)
	}

	if table.ID == constant.Empty {
		return failure.NotFound("table not found") // nolint:wrapcheck
	}

	if !table.IsAvailable {
		return failure.Conflict("table is not available") // nolint:wrapcheck
	}

	if table.Capacity < partySize {
		return failure.BadRequestFromString(fmt.Sprintf("table seats %d, reservation needs %d", table.Capacity, partySize)) // nolint:wrapcheck
	}

	return nil
}

// claimTableTx flips the table to unavailable. The is_available predicate in
// the filter makes the claim a compare-and-set: a concurrent claim leaves zero
// rows affected and rolls back the whole transition.
func (s *serviceImpl) claimTableTx(ctx context.Context, tx *sqlx.Tx, tableID, reservationID, user string) error {
	mod := map[string]any{
		tableModel.FieldIsAvailable:          false,
		tableModel.FieldCurrentReservationID: reservationID,
		constant.FieldModifiedAt:             timezone.Now(),
		constant.FieldModifiedBy:             user,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    tableModel.TableName,
				Field:    tableModel.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    tableID,
			},
			gDto.Filter{
				Table:    tableModel.TableName,
				Field:    tableModel.FieldIsAvailable,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
			},
		},
	}

	affected, err := s.tableRepo.UpdateTxChecked(ctx, tx, mod, filter)
	if err != nil {
		return fmt.Errorf("failed to claim table: %w", err)
	}

	if affected == 0 {
		return failure.Conflict("table is not available") // nolint:wrapcheck
	}

	return nil
}

// notifyTransition publishes the guest notification matching the new status.
// Dispatch runs detached from the request: a broker outage must not fail a
// transition that already committed.
func (s *serviceImpl) notifyTransition(ctx context.Context, reservation model.Reservation) {
	var notify func(context.Context, model.Reservation) error

	switch reservation.Status {
	case model.StatusConfirmed, model.StatusBooked:
		notify = s.dispatcher.NotifyConfirmed
	case model.StatusCancelled, model.StatusRejected:
		notify = s.dispatcher.NotifyCancelled
	case model.StatusExpired:
		notify = s.dispatcher.NotifyExpired
	default:
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := notify(c, reservation); err != nil {
			log.Error().Err(err).Str("reservationID", reservation.ID).Msg("failed to dispatch transition notification")
		}
	}()
}

// versionedFilter matches a reservation row only at the version the caller
// read, so concurrent writers cannot both commit.
func versionedFilter(id string, version int) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldVersion,
				Operator: gDto.FilterOperatorEq,
				Value:    version,
				ArgName:  "expected_version",
			},
		},
	}
}
