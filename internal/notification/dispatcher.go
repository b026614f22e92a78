package notification

//go:generate go run go.uber.org/mock/mockgen -source=./dispatcher.go -destination=./mocks/dispatcher_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tavolo/config"
	"tavolo/infras/kafka"
	"tavolo/infras/otel"
	"tavolo/internal/domains/reservation/model"
	"tavolo/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "notification"

	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
	EventExpired   = "reservation.expired"
	EventReminder  = "reservation.reminder"
)

// Event is the message published for downstream delivery channels. Message
// text rendering and the actual SMS/WhatsApp/email send happen outside this
// service.
type Event struct {
	Type            string    `json:"type"`
	ReservationID   string    `json:"reservation_id"`
	GuestName       string    `json:"guest_name"`
	GuestPhone      string    `json:"guest_phone"`
	ReservationDate string    `json:"reservation_date"`
	ReservationTime string    `json:"reservation_time"`
	PartySize       int       `json:"party_size"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Dispatcher hands guest-facing notifications to the message broker. Callers
// on reservation write paths treat dispatch as fire-and-forget: a failed
// publish is logged and never rolls back the state change it follows.
type Dispatcher interface {
	NotifyConfirmed(ctx context.Context, reservation model.Reservation) error
	NotifyCancelled(ctx context.Context, reservation model.Reservation) error
	NotifyExpired(ctx context.Context, reservation model.Reservation) error
	NotifyReminder(ctx context.Context, reservation model.Reservation) error
}

type dispatcherImpl struct {
	client kafka.Client
	cfg    *config.Config
	otel   otel.Otel
}

func New(client kafka.Client, cfg *config.Config, otel otel.Otel) Dispatcher {
	return &dispatcherImpl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

func (d *dispatcherImpl) NotifyConfirmed(ctx context.Context, reservation model.Reservation) error {
	return d.publish(ctx, d.cfg.Kafka.Topics.Confirmed, EventConfirmed, reservation)
}

func (d *dispatcherImpl) NotifyCancelled(ctx context.Context, reservation model.Reservation) error {
	return d.publish(ctx, d.cfg.Kafka.Topics.Cancelled, EventCancelled, reservation)
}

func (d *dispatcherImpl) NotifyExpired(ctx context.Context, reservation model.Reservation) error {
	return d.publish(ctx, d.cfg.Kafka.Topics.Expired, EventExpired, reservation)
}

func (d *dispatcherImpl) NotifyReminder(ctx context.Context, reservation model.Reservation) error {
	return d.publish(ctx, d.cfg.Kafka.Topics.Reminder, EventReminder, reservation)
}

func (d *dispatcherImpl) publish(ctx context.Context, topic, eventType string, reservation model.Reservation) (err error) {
	ctx, scope := d.otel.NewScope(ctx, otelScopeName, otelScopeName+".publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"event.type":     eventType,
		"reservation.id": reservation.ID,
	})

	event := Event{
		Type:            eventType,
		ReservationID:   reservation.ID,
		GuestName:       reservation.GuestName,
		GuestPhone:      reservation.GuestPhone,
		ReservationDate: reservation.ReservationDate.Format(model.DateFormat),
		ReservationTime: reservation.ReservationTime.Format(model.TimeFormat),
		PartySize:       reservation.PartySize,
		Status:          reservation.Status,
		OccurredAt:      timezone.Now(),
	}

	message := kafka.Message{
		Key:   reservation.ID,
		Value: event,
	}

	if err = d.client.SendMessages(ctx, topic, message); err != nil {
		log.Error().Err(err).
			Str("topic", topic).
			Str("reservationID", reservation.ID).
			Msg("failed to publish notification event")

		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	return nil
}
