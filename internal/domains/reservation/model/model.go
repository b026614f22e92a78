package model

import (
	"slices"
	"tavolo/shared/model"
	"tavolo/shared/timezone"
	"time"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID               = "id"
	FieldGuestName        = "guest_name"
	FieldGuestPhone       = "guest_phone"
	FieldReservationDate  = "reservation_date"
	FieldReservationTime  = "reservation_time"
	FieldPartySize        = "party_size"
	FieldStatus           = "status"
	FieldTableID          = "table_id"
	FieldSpecialRequests  = "special_requests"
	FieldAdminNotes       = "admin_notes"
	FieldSource           = "source"
	FieldConfirmationSent = "confirmation_sent"
	FieldReminderSent     = "reminder_sent"
	FieldWhatsappSent     = "whatsapp_sent"
	FieldIsExpired        = "is_expired"
	FieldVersion          = "version"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusBooked    = "booked"
	StatusReserved  = "reserved"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
	StatusExpired   = "expired"
	StatusCompleted = "completed"
	StatusNoShow    = "no-show"
)

const (
	SourceWeb    = "web"
	SourcePhone  = "phone"
	SourceWalkIn = "walk-in"
	SourceAdmin  = "admin"
)

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// AllStatuses lists every status a reservation can carry. reserved is a
// legacy alias still present in old records; it behaves like confirmed and
// is never produced by new writes.
var AllStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusBooked,
	StatusReserved,
	StatusCancelled,
	StatusRejected,
	StatusExpired,
	StatusCompleted,
	StatusNoShow,
}

var terminalStatuses = []string{
	StatusCancelled,
	StatusRejected,
	StatusExpired,
	StatusCompleted,
	StatusNoShow,
}

// nonTerminalTargets holds the allowed edges between non-terminal statuses.
// Every non-terminal status may additionally move to any terminal status.
var nonTerminalTargets = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusBooked},
	StatusConfirmed: {StatusBooked},
	StatusReserved:  {StatusBooked},
	StatusBooked:    {},
}

// IsTerminal reports whether status accepts no further transitions.
func IsTerminal(status string) bool {
	return slices.Contains(terminalStatuses, status)
}

// HoldsTable reports whether a reservation in this status participates in the
// table-availability coupling: a table held by such a reservation must be
// marked unavailable, and releasing it requires leaving this status set.
func HoldsTable(status string) bool {
	return status == StatusBooked || status == StatusConfirmed || status == StatusReserved
}

// CanTransition reports whether the edge from -> to is permitted.
func CanTransition(from, to string) bool {
	if IsTerminal(from) {
		return false
	}

	targets, known := nonTerminalTargets[from]
	if !known {
		return false
	}

	if IsTerminal(to) {
		return true
	}

	return slices.Contains(targets, to)
}

type Reservation struct {
	ID               string    `db:"id"`
	GuestName        string    `db:"guest_name"`
	GuestPhone       string    `db:"guest_phone"`
	ReservationDate  time.Time `db:"reservation_date"`
	ReservationTime  time.Time `db:"reservation_time"`
	PartySize        int       `db:"party_size"`
	Status           string    `db:"status"`
	TableID          *string   `db:"table_id"`
	SpecialRequests  string    `db:"special_requests"`
	AdminNotes       string    `db:"admin_notes"`
	Source           string    `db:"source"`
	ConfirmationSent bool      `db:"confirmation_sent"`
	ReminderSent     bool      `db:"reminder_sent"`
	WhatsappSent     bool      `db:"whatsapp_sent"`
	IsExpired        bool      `db:"is_expired"`
	Version          int       `db:"version"`
	model.Metadata
}

// StartsAt combines the reservation date and local time into a single instant
// in the venue timezone.
func (r *Reservation) StartsAt() time.Time {
	d := r.ReservationDate
	t := r.ReservationTime

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, timezone.GetLocation())
}

// OverdueAt reports whether the reservation's grace period has elapsed at now.
func (r *Reservation) OverdueAt(now time.Time, graceMinutes int) bool {
	deadline := r.StartsAt().Add(time.Duration(graceMinutes) * time.Minute)

	return now.After(deadline)
}
