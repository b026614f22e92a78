package dto

import (
	"tavolo/internal/domains/table/model"
	"tavolo/shared"
	gDto "tavolo/shared/dto"
	gModel "tavolo/shared/model"
	"tavolo/shared/timezone"

	"github.com/google/uuid"
)

type CreateTableRequest struct {
	Name      string `json:"name"       validate:"required,max=50"`
	Capacity  int    `json:"capacity"   validate:"required,gt=0"`
	TableType string `json:"table_type" validate:"omitempty,oneof=standard booth bar outdoor private"`
	Location  string `json:"location"   validate:"omitempty,max=100"`
}

func (c *CreateTableRequest) ToModel(user string) model.Table {
	tableType := c.TableType
	if tableType == "" {
		tableType = model.TypeStandard
	}

	return model.Table{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Capacity:    c.Capacity,
		TableType:   tableType,
		Location:    c.Location,
		IsAvailable: true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateTableRequest covers the descriptive fields. Availability and the
// reservation back-reference are reservation-service territory.
type UpdateTableRequest struct {
	Name      string `db:"name"       json:"name"       validate:"omitempty,max=50"`
	Capacity  int    `db:"capacity"   json:"capacity"   validate:"omitempty,gt=0"`
	TableType string `db:"table_type" json:"table_type" validate:"omitempty,oneof=standard booth bar outdoor private"`
	Location  string `db:"location"   json:"location"   validate:"omitempty,max=100"`
}

type TableResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Capacity             int    `json:"capacity"`
	TableType            string `json:"table_type"`
	Location             string `json:"location"`
	IsAvailable          bool   `json:"is_available"`
	CurrentReservationID string `json:"current_reservation_id,omitempty"`
	gDto.Metadata
}

func (r *TableResponse) FromModel(mod model.Table) {
	r.ID = mod.ID
	r.Name = mod.Name
	r.Capacity = mod.Capacity
	r.TableType = mod.TableType
	r.Location = mod.Location
	r.IsAvailable = mod.IsAvailable

	if mod.CurrentReservationID != nil {
		r.CurrentReservationID = *mod.CurrentReservationID
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetTablesResponse struct {
	Tables    []TableResponse `json:"tables"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetTablesResponse) FromModels(models []model.Table, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Tables = make([]TableResponse, len(models))
	for i, mod := range models {
		r.Tables[i].FromModel(mod)
	}
}
