package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	tableModel "tavolo/internal/domains/table/model"
	"tavolo/shared/failure"
)

func TestReservationService_ExecuteBulkConfirm(t *testing.T) {
	svc, m := newService(t)

	first := pendingReservation()
	second := pendingReservation()
	second.ID = "res-2"
	second.Version = 4

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{first, second}, nil)
	m.repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.repo.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, model.StatusConfirmed, mod[model.FieldStatus])
			assert.Equal(t, true, mod[model.FieldWhatsappSent])
			return 1, nil
		}).
		Times(2)

	notified := make(chan struct{})

	gomock.InOrder(
		m.dispatcher.EXPECT().NotifyConfirmed(gomock.Any(), gomock.Any()).Return(nil),
		m.dispatcher.EXPECT().
			NotifyConfirmed(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, model.Reservation) error {
				close(notified)
				return nil
			}),
	)

	invalidated := expectInvalidation(m)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionConfirm,
		ReservationIDs: []string{"res-1", "res-2"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, affected)

	waitFor(t, notified)
	waitFor(t, invalidated)
}

func TestReservationService_ExecuteBulkRejectsWholeBatch(t *testing.T) {
	svc, m := newService(t)

	valid := pendingReservation()
	terminal := pendingReservation()
	terminal.ID = "res-2"
	terminal.Status = model.StatusCompleted

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{valid, terminal}, nil)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionConfirm,
		ReservationIDs: []string{"res-1", "res-2"},
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	assert.Zero(t, affected)
}

func TestReservationService_ExecuteBulkMissingReservation(t *testing.T) {
	svc, m := newService(t)

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{pendingReservation()}, nil)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionConfirm,
		ReservationIDs: []string{"res-1", "ghost"},
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	assert.Zero(t, affected)
}

func TestReservationService_ExecuteBulkCasFailureRollsBack(t *testing.T) {
	svc, m := newService(t)

	first := pendingReservation()
	second := pendingReservation()
	second.ID = "res-2"

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{first, second}, nil)
	m.repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})

	gomock.InOrder(
		m.repo.EXPECT().
			UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(1), nil),
		m.repo.EXPECT().
			UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(0), nil),
	)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionConfirm,
		ReservationIDs: []string{"res-1", "res-2"},
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Zero(t, affected)
}

func TestReservationService_ExecuteBulkDeleteReleasesTables(t *testing.T) {
	svc, m := newService(t)

	tableID := "table-1"
	booked := pendingReservation()
	booked.Status = model.StatusBooked
	booked.TableID = &tableID

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{booked}, nil)
	m.repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.tableRepo.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, true, mod[tableModel.FieldIsAvailable])
			assert.Nil(t, mod[tableModel.FieldCurrentReservationID])
			return 1, nil
		})
	m.repo.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	invalidated := expectInvalidation(m)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionDelete,
		ReservationIDs: []string{"res-1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, affected)

	waitFor(t, invalidated)
}

func TestReservationService_ExecuteBulkAssignTableSingleTarget(t *testing.T) {
	svc, m := newService(t)

	first := pendingReservation()
	second := pendingReservation()
	second.ID = "res-2"

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{first, second}, nil)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionAssignTable,
		ReservationIDs: []string{"res-1", "res-2"},
		TableID:        "table-1",
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	assert.Zero(t, affected)
}

func TestReservationService_ExecuteBulkSendReminder(t *testing.T) {
	svc, m := newService(t)

	confirmed := pendingReservation()
	confirmed.Status = model.StatusConfirmed

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{confirmed}, nil)
	m.repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.repo.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, true, mod[model.FieldReminderSent])
			assert.NotContains(t, mod, model.FieldStatus)
			return 1, nil
		})

	notified := make(chan struct{})

	m.dispatcher.EXPECT().
		NotifyReminder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.Reservation) error {
			assert.True(t, r.ReminderSent)
			close(notified)
			return nil
		})

	invalidated := expectInvalidation(m)

	affected, err := svc.ExecuteBulk(testContext(), dto.BulkActionRequest{
		Action:         dto.ActionSendReminder,
		ReservationIDs: []string{"res-1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, affected)

	waitFor(t, notified)
	waitFor(t, invalidated)
}
