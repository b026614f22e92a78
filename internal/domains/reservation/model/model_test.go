package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tavolo/internal/domains/reservation/model"
	"tavolo/shared/timezone"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "pending to confirmed", from: model.StatusPending, to: model.StatusConfirmed, want: true},
		{name: "pending to booked", from: model.StatusPending, to: model.StatusBooked, want: true},
		{name: "pending to cancelled", from: model.StatusPending, to: model.StatusCancelled, want: true},
		{name: "pending to rejected", from: model.StatusPending, to: model.StatusRejected, want: true},
		{name: "pending to expired", from: model.StatusPending, to: model.StatusExpired, want: true},
		{name: "confirmed to booked", from: model.StatusConfirmed, to: model.StatusBooked, want: true},
		{name: "confirmed to no-show", from: model.StatusConfirmed, to: model.StatusNoShow, want: true},
		{name: "legacy reserved to booked", from: model.StatusReserved, to: model.StatusBooked, want: true},
		{name: "legacy reserved to cancelled", from: model.StatusReserved, to: model.StatusCancelled, want: true},
		{name: "booked to completed", from: model.StatusBooked, to: model.StatusCompleted, want: true},
		{name: "booked to no-show", from: model.StatusBooked, to: model.StatusNoShow, want: true},
		{name: "confirmed back to pending", from: model.StatusConfirmed, to: model.StatusPending, want: false},
		{name: "booked to confirmed", from: model.StatusBooked, to: model.StatusConfirmed, want: false},
		{name: "cancelled to confirmed", from: model.StatusCancelled, to: model.StatusConfirmed, want: false},
		{name: "expired to booked", from: model.StatusExpired, to: model.StatusBooked, want: false},
		{name: "completed to cancelled", from: model.StatusCompleted, to: model.StatusCancelled, want: false},
		{name: "no-show to completed", from: model.StatusNoShow, to: model.StatusCompleted, want: false},
		{name: "unknown status", from: "limbo", to: model.StatusConfirmed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []string{
		model.StatusCancelled,
		model.StatusRejected,
		model.StatusExpired,
		model.StatusCompleted,
		model.StatusNoShow,
	}
	for _, status := range terminal {
		assert.True(t, model.IsTerminal(status), status)
	}

	live := []string{
		model.StatusPending,
		model.StatusConfirmed,
		model.StatusReserved,
		model.StatusBooked,
	}
	for _, status := range live {
		assert.False(t, model.IsTerminal(status), status)
	}
}

func TestHoldsTable(t *testing.T) {
	assert.True(t, model.HoldsTable(model.StatusBooked))
	assert.True(t, model.HoldsTable(model.StatusConfirmed))
	assert.True(t, model.HoldsTable(model.StatusReserved))
	assert.False(t, model.HoldsTable(model.StatusPending))
	assert.False(t, model.HoldsTable(model.StatusCompleted))
}

func TestReservation_OverdueAt(t *testing.T) {
	loc := timezone.GetLocation()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)
	clock := time.Date(0, 1, 1, 19, 0, 0, 0, loc)

	reservation := model.Reservation{
		ReservationDate: date,
		ReservationTime: clock,
	}

	startsAt := time.Date(2026, 3, 14, 19, 0, 0, 0, loc)
	assert.Equal(t, startsAt, reservation.StartsAt())

	tests := []struct {
		name  string
		now   time.Time
		grace int
		want  bool
	}{
		{name: "before start", now: startsAt.Add(-time.Hour), grace: 30, want: false},
		{name: "at start", now: startsAt, grace: 30, want: false},
		{name: "inside grace", now: startsAt.Add(29 * time.Minute), grace: 30, want: false},
		{name: "exactly at deadline", now: startsAt.Add(30 * time.Minute), grace: 30, want: false},
		{name: "past deadline", now: startsAt.Add(31 * time.Minute), grace: 30, want: true},
		{name: "zero grace past start", now: startsAt.Add(time.Minute), grace: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reservation.OverdueAt(tt.now, tt.grace))
		})
	}
}
