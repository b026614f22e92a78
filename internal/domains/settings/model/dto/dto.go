package dto

import (
	"tavolo/internal/domains/settings/model"
	gDto "tavolo/shared/dto"
)

// UpdateSettingsRequest uses pointer fields so that explicit false/zero values
// survive the partial-update transformation.
type UpdateSettingsRequest struct {
	IsEnabled                  *bool `db:"is_enabled"                   json:"is_enabled"`
	ExpirationMinutes          *int  `db:"expiration_minutes"           json:"expiration_minutes"           validate:"omitempty,gt=0"`
	ReminderMinutes            *int  `db:"reminder_minutes"             json:"reminder_minutes"             validate:"omitempty,gte=0"`
	AutoMarkNoShow             *bool `db:"auto_mark_no_show"            json:"auto_mark_no_show"`
	SendExpirationNotification *bool `db:"send_expiration_notification" json:"send_expiration_notification"`
}

type SettingsResponse struct {
	IsEnabled                  bool `json:"is_enabled"`
	ExpirationMinutes          int  `json:"expiration_minutes"`
	ReminderMinutes            int  `json:"reminder_minutes"`
	AutoMarkNoShow             bool `json:"auto_mark_no_show"`
	SendExpirationNotification bool `json:"send_expiration_notification"`
	gDto.Metadata
}

func (r *SettingsResponse) FromModel(mod model.ExpirationSettings) {
	r.IsEnabled = mod.IsEnabled
	r.ExpirationMinutes = mod.ExpirationMinutes
	r.ReminderMinutes = mod.ReminderMinutes
	r.AutoMarkNoShow = mod.AutoMarkNoShow
	r.SendExpirationNotification = mod.SendExpirationNotification
	r.Metadata.FromModel(mod.Metadata)
}
