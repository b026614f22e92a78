package model

import (
	"tavolo/shared/model"
)

const (
	TableName  = "venue_tables"
	EntityName = "table"

	FieldID                   = "id"
	FieldName                 = "name"
	FieldCapacity             = "capacity"
	FieldTableType            = "table_type"
	FieldLocation             = "location"
	FieldIsAvailable          = "is_available"
	FieldCurrentReservationID = "current_reservation_id"
)

const (
	TypeStandard = "standard"
	TypeBooth    = "booth"
	TypeBar      = "bar"
	TypeOutdoor  = "outdoor"
	TypePrivate  = "private"
)

// Table is a physical seating unit. is_available and current_reservation_id
// are owned jointly with the reservation holding the table; both sides only
// change inside the reservation service's write transactions.
type Table struct {
	ID                   string  `db:"id"`
	Name                 string  `db:"name"`
	Capacity             int     `db:"capacity"`
	TableType            string  `db:"table_type"`
	Location             string  `db:"location"`
	IsAvailable          bool    `db:"is_available"`
	CurrentReservationID *string `db:"current_reservation_id"`
	model.Metadata
}
