package dto

import (
	"strings"
	"tavolo/internal/domains/reservation/model"
	"tavolo/shared"
	gDto "tavolo/shared/dto"
	gModel "tavolo/shared/model"
	"tavolo/shared/timezone"

	"github.com/google/uuid"
)

const (
	ActionConfirm      = "confirm"
	ActionCancel       = "cancel"
	ActionReject       = "reject"
	ActionAssignTable  = "assign-table"
	ActionDelete       = "delete"
	ActionSendReminder = "send-reminder"
)

const (
	FilterAll = "all"

	SortDateTime  = "date_time"
	SortGuestName = "guest_name"
	SortCreatedAt = "created_at"
	SortPartySize = "party_size"
)

// sortColumns maps the exposed sort keys onto the column lists handed to the
// repository ordering clause.
var sortColumns = map[string]string{
	SortDateTime:  model.FieldReservationDate + "," + model.FieldReservationTime,
	SortGuestName: model.FieldGuestName,
	SortCreatedAt: "created_at",
	SortPartySize: model.FieldPartySize,
	"guests":      model.FieldPartySize,
}

type CreateReservationRequest struct {
	GuestName       string `json:"guest_name"       validate:"required,max=100"`
	GuestPhone      string `json:"guest_phone"      validate:"required,max=20"`
	ReservationDate string `json:"reservation_date" validate:"required"`
	ReservationTime string `json:"reservation_time" validate:"required"`
	PartySize       int    `json:"party_size"       validate:"required,gt=0"`
	SpecialRequests string `json:"special_requests" validate:"omitempty"`
	Source          string `json:"source"           validate:"omitempty,oneof=web phone walk-in admin"`
}

func (c *CreateReservationRequest) ToModel(user string) (model.Reservation, error) {
	date, err := timezone.Parse(model.DateFormat, c.ReservationDate)
	if err != nil {
		return model.Reservation{}, err
	}

	localTime, err := timezone.Parse(model.TimeFormat, c.ReservationTime)
	if err != nil {
		return model.Reservation{}, err
	}

	source := c.Source
	if source == "" {
		source = model.SourceWeb
	}

	return model.Reservation{
		ID:              uuid.NewString(),
		GuestName:       c.GuestName,
		GuestPhone:      c.GuestPhone,
		ReservationDate: date,
		ReservationTime: localTime,
		PartySize:       c.PartySize,
		Status:          model.StatusPending,
		SpecialRequests: c.SpecialRequests,
		Source:          source,
		Version:         1,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

// UpdateReservationRequest carries the guest-editable fields. Lifecycle
// fields (status, table, sent flags) only move through transitions.
type UpdateReservationRequest struct {
	GuestName       string `db:"guest_name"       json:"guest_name"       validate:"omitempty,max=100"`
	GuestPhone      string `db:"guest_phone"      json:"guest_phone"      validate:"omitempty,max=20"`
	PartySize       int    `db:"party_size"       json:"party_size"       validate:"omitempty,gt=0"`
	SpecialRequests string `db:"special_requests" json:"special_requests" validate:"omitempty"`
	AdminNotes      string `db:"admin_notes"      json:"admin_notes"      validate:"omitempty"`
}

type TransitionRequest struct {
	TargetStatus    string `json:"target_status"    validate:"required,oneof=confirmed booked cancelled rejected completed expired no-show"`
	TableID         string `json:"table_id"         validate:"omitempty"`
	Notes           string `json:"notes"            validate:"omitempty"`
	ExpectedVersion int    `json:"expected_version" validate:"omitempty,gt=0"`
}

type BulkActionRequest struct {
	Action         string   `json:"action"          validate:"required,oneof=confirm cancel reject assign-table delete send-reminder"`
	ReservationIDs []string `json:"reservation_ids" validate:"required,min=1,dive,required"`
	TableID        string   `json:"table_id"        validate:"required_if=Action assign-table"`
	Notes          string   `json:"notes"           validate:"omitempty"`
}

type BulkActionResponse struct {
	Action   string `json:"action"`
	Affected int    `json:"affected"`
}

type ExportReservationsResponse struct {
	URL string `json:"url"`
}

type ReservationResponse struct {
	ID               string `json:"id"`
	GuestName        string `json:"guest_name"`
	GuestPhone       string `json:"guest_phone"`
	ReservationDate  string `json:"reservation_date"`
	ReservationTime  string `json:"reservation_time"`
	PartySize        int    `json:"party_size"`
	Status           string `json:"status"`
	TableID          string `json:"table_id,omitempty"`
	SpecialRequests  string `json:"special_requests,omitempty"`
	AdminNotes       string `json:"admin_notes,omitempty"`
	Source           string `json:"source"`
	ConfirmationSent bool   `json:"confirmation_sent"`
	ReminderSent     bool   `json:"reminder_sent"`
	WhatsappSent     bool   `json:"whatsapp_sent"`
	IsExpired        bool   `json:"is_expired"`
	Version          int    `json:"version"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(mod model.Reservation) {
	r.ID = mod.ID
	r.GuestName = mod.GuestName
	r.GuestPhone = mod.GuestPhone
	r.ReservationDate = mod.ReservationDate.Format(model.DateFormat)
	r.ReservationTime = mod.ReservationTime.Format(model.TimeFormat)
	r.PartySize = mod.PartySize
	r.Status = mod.Status
	r.SpecialRequests = mod.SpecialRequests
	r.AdminNotes = mod.AdminNotes
	r.Source = mod.Source
	r.ConfirmationSent = mod.ConfirmationSent
	r.ReminderSent = mod.ReminderSent
	r.WhatsappSent = mod.WhatsappSent
	r.IsExpired = mod.IsExpired
	r.Version = mod.Version

	if mod.TableID != nil {
		r.TableID = *mod.TableID
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

// ReservationFilter is the display-facing filter set over the reservation
// collection. Zero values and "all" mean no restriction.
type ReservationFilter struct {
	Status     string
	TableID    string
	DateFrom   string
	DateTo     string
	SearchTerm string
}

// ToFilterGroup translates the filter set into the repository DSL. The search
// term matches guest name, phone, or reservation id, case-insensitively.
func (f *ReservationFilter) ToFilterGroup() gDto.FilterGroup {
	group := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if f.Status != "" && f.Status != FilterAll {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Value:    f.Status,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	}

	if f.TableID != "" && f.TableID != FilterAll {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldTableID,
			Value:    f.TableID,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	}

	if f.DateFrom != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			ArgName:  "date_from",
			Field:    model.FieldReservationDate,
			Value:    f.DateFrom,
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    model.TableName,
		})
	}

	if f.DateTo != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			ArgName:  "date_to",
			Field:    model.FieldReservationDate,
			Value:    f.DateTo,
			Operator: gDto.FilterOperatorLessEq,
			Table:    model.TableName,
		})
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		group.Filters = append(group.Filters, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorOr,
			Filters: []any{
				gDto.Filter{
					ArgName:  "search_guest_name",
					Field:    model.FieldGuestName,
					Value:    term,
					Operator: gDto.FilterOperatorLike,
					Table:    model.TableName,
				},
				gDto.Filter{
					ArgName:  "search_guest_phone",
					Field:    model.FieldGuestPhone,
					Value:    term,
					Operator: gDto.FilterOperatorLike,
					Table:    model.TableName,
				},
				gDto.Filter{
					ArgName:  "search_id",
					Field:    model.FieldID,
					Value:    term,
					Operator: gDto.FilterOperatorLike,
					Table:    model.TableName,
				},
			},
		})
	}

	return group
}

// NormalizeSort rewrites the request sort key onto whitelisted columns. An
// unknown key falls back to the date/time composite so listings always have a
// stable order; the repository adds the primary-key tiebreak.
func NormalizeSort(params *gDto.QueryParams) {
	columns, ok := sortColumns[params.SortBy]
	if !ok {
		columns = sortColumns[SortDateTime]
	}

	params.SortBy = columns

	if params.SortDir != gDto.SortDirAsc && params.SortDir != gDto.SortDirDesc {
		params.SortDir = gDto.SortDirAsc
	}
}
