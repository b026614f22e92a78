package sweeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tavolo/config"
	"tavolo/infras/otel/mocks"
	resMocks "tavolo/internal/domains/reservation/mocks"
	resModel "tavolo/internal/domains/reservation/model"
	settingsMocks "tavolo/internal/domains/settings/mocks"
	settingsModel "tavolo/internal/domains/settings/model"
	tableMocks "tavolo/internal/domains/table/mocks"
	tableModel "tavolo/internal/domains/table/model"
	notifMocks "tavolo/internal/notification/mocks"
	"tavolo/internal/worker/sweeper"
	cacheMocks "tavolo/shared/cache/mocks"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/timezone"
)

type sweeperMocks struct {
	reservations *resMocks.MockReservation
	tables       *tableMocks.MockTable
	settings     *settingsMocks.MockSettings
	dispatcher   *notifMocks.MockDispatcher
	cache        *cacheMocks.MockRedisCache
}

func newSweeper(t *testing.T) (*sweeper.Sweeper, *sweeperMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &sweeperMocks{
		reservations: resMocks.NewMockReservation(ctrl),
		tables:       tableMocks.NewMockTable(ctrl),
		settings:     settingsMocks.NewMockSettings(ctrl),
		dispatcher:   notifMocks.NewMockDispatcher(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Sweeper.IntervalSeconds = 60
	cfg.Sweeper.LeaderTTLSeconds = 120

	s := sweeper.New(m.reservations, m.tables, m.settings, m.dispatcher, m.cache, cfg, mocks.NewOtel())

	return s, m
}

func enabledPolicy() settingsModel.ExpirationSettings {
	return settingsModel.ExpirationSettings{
		ID:                         settingsModel.SingletonID,
		IsEnabled:                  true,
		ExpirationMinutes:          30,
		SendExpirationNotification: true,
	}
}

// overdueReservation is dated yesterday so any grace period has elapsed.
func overdueReservation(now time.Time) resModel.Reservation {
	return resModel.Reservation{
		ID:              "res-1",
		GuestName:       "Dana Whitmore",
		GuestPhone:      "+15550100",
		ReservationDate: now.AddDate(0, 0, -1),
		ReservationTime: now,
		PartySize:       2,
		Status:          resModel.StatusConfirmed,
		Version:         1,
	}
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async call")
	}
}

func TestSweeper_SweepExpiresOverdueConfirmed(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(enabledPolicy(), nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{overdueReservation(now)}, nil)
	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, resModel.StatusExpired, mod[resModel.FieldStatus])
			assert.Equal(t, true, mod[resModel.FieldIsExpired])
			assert.Equal(t, 2, mod[resModel.FieldVersion])
			return 1, nil
		})

	notified := make(chan struct{})

	m.dispatcher.EXPECT().
		NotifyExpired(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r resModel.Reservation) error {
			assert.Equal(t, resModel.StatusExpired, r.Status)
			close(notified)
			return nil
		})

	invalidated := make(chan struct{})

	m.cache.EXPECT().
		Clear(gomock.Any(), "stats"+constant.Asterix).
		DoAndReturn(func(context.Context, string) error {
			close(invalidated)
			return nil
		})
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	waitFor(t, notified)
	waitFor(t, invalidated)
}

func TestSweeper_SweepDisabledPolicy(t *testing.T) {
	s, m := newSweeper(t)

	policy := enabledPolicy()
	policy.IsEnabled = false

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(policy, nil)

	swept, err := s.Sweep(context.Background(), timezone.Now())

	assert.NoError(t, err)
	assert.Zero(t, swept)
}

func TestSweeper_SweepSkipsFutureReservations(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	upcoming := overdueReservation(now)
	upcoming.ReservationDate = now.AddDate(0, 0, 1)

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(enabledPolicy(), nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{upcoming}, nil)

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Zero(t, swept)
}

func TestSweeper_SweepLosesRaceQuietly(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(enabledPolicy(), nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{overdueReservation(now)}, nil)
	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil)

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Zero(t, swept)
}

func TestSweeper_SweepReleasesHeldTable(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	tableID := "table-1"
	booked := overdueReservation(now)
	booked.Status = resModel.StatusBooked
	booked.TableID = &tableID

	policy := enabledPolicy()
	policy.AutoMarkNoShow = true
	policy.SendExpirationNotification = false

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(policy, nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{booked}, nil)
	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, resModel.StatusNoShow, mod[resModel.FieldStatus])
			assert.Nil(t, mod[resModel.FieldTableID])
			return 1, nil
		})

	invalidated := make(chan struct{})

	m.tables.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, true, mod[tableModel.FieldIsAvailable])
			assert.Nil(t, mod[tableModel.FieldCurrentReservationID])
			return 1, nil
		})
	m.cache.EXPECT().
		Clear(gomock.Any(), "stats"+constant.Asterix).
		DoAndReturn(func(context.Context, string) error {
			close(invalidated)
			return nil
		})
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	waitFor(t, invalidated)
}

func TestSweeper_SweepExpiresBookedWithoutNoShowPolicy(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	tableID := "table-1"
	booked := overdueReservation(now)
	booked.Status = resModel.StatusBooked
	booked.TableID = &tableID

	policy := enabledPolicy()
	policy.SendExpirationNotification = false

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(policy, nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{booked}, nil)
	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, resModel.StatusExpired, mod[resModel.FieldStatus])
			assert.Equal(t, true, mod[resModel.FieldIsExpired])
			return 1, nil
		})

	invalidated := make(chan struct{})

	m.tables.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, true, mod[tableModel.FieldIsAvailable])
			assert.Nil(t, mod[tableModel.FieldCurrentReservationID])
			return 1, nil
		})
	m.cache.EXPECT().
		Clear(gomock.Any(), "stats"+constant.Asterix).
		DoAndReturn(func(context.Context, string) error {
			close(invalidated)
			return nil
		})
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	waitFor(t, invalidated)
}

func TestSweeper_SweepNoShowAppliesToConfirmed(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	policy := enabledPolicy()
	policy.AutoMarkNoShow = true
	policy.SendExpirationNotification = false

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(policy, nil)
	m.reservations.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]resModel.Reservation{overdueReservation(now)}, nil)
	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, resModel.StatusNoShow, mod[resModel.FieldStatus])
			return 1, nil
		})
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)
}

// A second pass over an already retired set must write nothing and notify
// nobody: the candidate query excludes retired rows outright.
func TestSweeper_ResweepSkipsRetired(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(enabledPolicy(), nil).Times(2)

	gomock.InOrder(
		m.reservations.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]resModel.Reservation, error) {
				assertFiltersOutRetired(t, filter)
				return []resModel.Reservation{overdueReservation(now)}, nil
			}),
		m.reservations.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]resModel.Reservation, error) {
				assertFiltersOutRetired(t, filter)
				return []resModel.Reservation{}, nil
			}),
	)

	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(1), nil)

	notified := make(chan struct{})

	m.dispatcher.EXPECT().
		NotifyExpired(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, resModel.Reservation) error {
			close(notified)
			return nil
		})
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	swept, err := s.Sweep(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	waitFor(t, notified)

	swept, err = s.Sweep(context.Background(), now)
	assert.NoError(t, err)
	assert.Zero(t, swept)
}

// assertFiltersOutRetired checks the candidate query carries the
// is_expired = false predicate that keeps retired rows out of later passes.
func assertFiltersOutRetired(t *testing.T, group gDto.FilterGroup) {
	t.Helper()

	for _, raw := range group.Filters {
		filter, ok := raw.(gDto.Filter)
		if !ok {
			continue
		}

		if filter.Field == resModel.FieldIsExpired {
			assert.Equal(t, gDto.FilterOperatorEq, filter.Operator)
			assert.Equal(t, false, filter.Value)

			return
		}
	}

	t.Fatal("candidate filter does not exclude retired reservations")
}

func TestSweeper_RemindUpcomingReservation(t *testing.T) {
	s, m := newSweeper(t)
	now := timezone.Now()

	soon := now.Add(20 * time.Minute)
	confirmed := resModel.Reservation{
		ID:              "res-1",
		GuestName:       "Dana Whitmore",
		GuestPhone:      "+15550100",
		ReservationDate: soon,
		ReservationTime: soon,
		PartySize:       2,
		Status:          resModel.StatusConfirmed,
		Version:         1,
	}

	policy := enabledPolicy()
	policy.ReminderMinutes = 30

	m.settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(policy, nil)

	gomock.InOrder(
		m.reservations.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]resModel.Reservation{}, nil),
		m.reservations.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]resModel.Reservation{confirmed}, nil),
	)

	m.reservations.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.reservations.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, mod map[string]any, _ any) (int64, error) {
			assert.Equal(t, true, mod[resModel.FieldReminderSent])
			return 1, nil
		})

	notified := make(chan struct{})

	m.dispatcher.EXPECT().
		NotifyReminder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r resModel.Reservation) error {
			assert.True(t, r.ReminderSent)
			close(notified)
			return nil
		})

	swept, err := s.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Zero(t, swept)

	waitFor(t, notified)
}
