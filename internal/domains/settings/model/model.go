package model

import (
	"tavolo/shared/model"
)

const (
	TableName  = "expiration_settings"
	EntityName = "expiration_settings"

	FieldID                         = "id"
	FieldIsEnabled                  = "is_enabled"
	FieldExpirationMinutes          = "expiration_minutes"
	FieldReminderMinutes            = "reminder_minutes"
	FieldAutoMarkNoShow             = "auto_mark_no_show"
	FieldSendExpirationNotification = "send_expiration_notification"

	// SingletonID is the id of the only row in the settings table.
	SingletonID = "default"
)

type ExpirationSettings struct {
	ID                         string `db:"id"`
	IsEnabled                  bool   `db:"is_enabled"`
	ExpirationMinutes          int    `db:"expiration_minutes"`
	ReminderMinutes            int    `db:"reminder_minutes"`
	AutoMarkNoShow             bool   `db:"auto_mark_no_show"`
	SendExpirationNotification bool   `db:"send_expiration_notification"`
	model.Metadata
}
