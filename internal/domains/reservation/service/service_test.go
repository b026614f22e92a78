package service_test

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	gDto "tavolo/shared/dto"
	"tavolo/shared/failure"
)

func TestReservationService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateReservationRequest
		setupMock func(m *serviceMocks)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful creation",
			req: dto.CreateReservationRequest{
				GuestName:       "Dana Whitmore",
				GuestPhone:      "+15550100",
				ReservationDate: "2026-03-14",
				ReservationTime: "19:30",
				PartySize:       4,
			},
			setupMock: func(m *serviceMocks) {
				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, r model.Reservation) error {
						assert.Equal(t, model.StatusPending, r.Status)
						assert.Equal(t, 1, r.Version)
						return nil
					})
			},
			wantErr: false,
		},
		{
			name: "malformed date",
			req: dto.CreateReservationRequest{
				GuestName:       "Dana Whitmore",
				GuestPhone:      "+15550100",
				ReservationDate: "tonight",
				ReservationTime: "19:30",
				PartySize:       4,
			},
			setupMock: func(*serviceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "repository error",
			req: dto.CreateReservationRequest{
				GuestName:       "Dana Whitmore",
				GuestPhone:      "+15550100",
				ReservationDate: "2026-03-14",
				ReservationTime: "19:30",
				PartySize:       4,
			},
			setupMock: func(m *serviceMocks) {
				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			var invalidated chan struct{}
			if !tt.wantErr {
				invalidated = expectInvalidation(m)
			}

			res, err := svc.Create(testContext(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ID)
			assert.Equal(t, model.StatusPending, res.Status)

			waitFor(t, invalidated)
		})
	}
}

func TestReservationService_Get(t *testing.T) {
	t.Run("cache miss falls through to repository", func(t *testing.T) {
		svc, m := newService(t)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(), nil)

		saved := make(chan struct{})

		m.cache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string, any, int) error {
				close(saved)
				return nil
			})

		res, err := svc.Get(context.Background(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)

		waitFor(t, saved)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newService(t)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Reservation{}, nil)

		_, err := svc.Get(context.Background(), "ghost")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestReservationService_GetAll(t *testing.T) {
	svc, m := newService(t)

	m.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss")).
		Times(2)
	m.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(12, nil)
	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Reservation, error) {
			assert.Equal(t, "reservation_date,reservation_time", params.SortBy)
			assert.Equal(t, gDto.SortDirAsc, params.SortDir)
			return []model.Reservation{pendingReservation()}, nil
		})

	saves := make(chan struct{}, 2)

	m.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, any, int) error {
			saves <- struct{}{}
			return nil
		}).
		Times(2)

	res, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, dto.ReservationFilter{})

	assert.NoError(t, err)
	assert.Equal(t, 12, res.TotalData)
	assert.Equal(t, 2, res.TotalPage)
	assert.Len(t, res.Reservations, 1)

	waitFor(t, saves)
	waitFor(t, saves)
}

func TestReservationService_Update(t *testing.T) {
	t.Run("empty request", func(t *testing.T) {
		svc, _ := newService(t)

		err := svc.Update(testContext(), dto.UpdateReservationRequest{}, "res-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Update(testContext(), dto.UpdateReservationRequest{GuestName: "Dana W"}, "ghost")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("successful update", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, mod map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "Dana W", mod[model.FieldGuestName])
				assert.NotContains(t, mod, model.FieldStatus)
				return nil
			})

		invalidated := expectInvalidation(m)

		err := svc.Update(testContext(), dto.UpdateReservationRequest{GuestName: "Dana W"}, "res-1")

		assert.NoError(t, err)
		waitFor(t, invalidated)
	})
}

func TestReservationService_DeleteReleasesHeldTable(t *testing.T) {
	svc, m := newService(t)

	tableID := "table-1"
	reservation := pendingReservation()
	reservation.Status = model.StatusBooked
	reservation.TableID = &tableID

	m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)
	m.repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
	m.tableRepo.EXPECT().
		UpdateTxChecked(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(1), nil)
	m.repo.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	invalidated := expectInvalidation(m)

	err := svc.Delete(testContext(), "res-1")

	assert.NoError(t, err)
	waitFor(t, invalidated)
}

func TestReservationService_ExportCSV(t *testing.T) {
	t.Run("renders rows in schedule order", func(t *testing.T) {
		svc, m := newService(t)

		first := pendingReservation()
		second := pendingReservation()
		second.ID = "res-2"
		second.GuestName = "Oren Feld"

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Reservation{first, second}, nil)

		data, url, err := svc.ExportCSV(context.Background(), dto.ReservationFilter{}, false)

		assert.NoError(t, err)
		assert.Empty(t, url)

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		assert.NoError(t, err)
		assert.Len(t, records, 3)
		assert.Equal(t, "id", records[0][0])
		assert.Equal(t, "res-1", records[1][0])
		assert.Equal(t, "Oren Feld", records[2][1])
	})

	t.Run("archives to object storage", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Reservation{pendingReservation()}, nil)
		m.s3.EXPECT().
			UploadFileBytes(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "text/csv", gomock.Any()).
			Return("https://cdn.example.com/exports/reservations.csv", nil)

		data, url, err := svc.ExportCSV(context.Background(), dto.ReservationFilter{}, true)

		assert.NoError(t, err)
		assert.NotEmpty(t, data)
		assert.Equal(t, "https://cdn.example.com/exports/reservations.csv", url)
	})

	t.Run("upload failure maps to bad gateway", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Reservation{pendingReservation()}, nil)
		m.s3.EXPECT().
			UploadFileBytes(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.New("connection refused"))

		_, _, err := svc.ExportCSV(context.Background(), dto.ReservationFilter{}, true)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, failure.GetCode(err))
	})
}
