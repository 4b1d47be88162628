package dto

import (
	"tripmarket/internal/domains/agency/model"
	"tripmarket/shared"
	gDto "tripmarket/shared/dto"
	gModel "tripmarket/shared/model"
	"tripmarket/shared/timezone"

	"github.com/google/uuid"
)

type CreateAgencyRequest struct {
	Name      string `json:"name"       validate:"required,max=100"`
	Email     string `json:"email"      validate:"required,email,max=100"`
	Phone     string `json:"phone"      validate:"omitempty,max=20"`
	Address   string `json:"address"    validate:"omitempty,max=200"`
	Website   string `json:"website"    validate:"omitempty,url,max=100"`
	TaxNumber string `json:"tax_number" validate:"omitempty,max=50"`
}

func (c *CreateAgencyRequest) ToModel(owner string) model.Agency {
	var taxNumber *string
	if c.TaxNumber != "" {
		taxNumber = &c.TaxNumber
	}

	return model.Agency{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Website:   c.Website,
		TaxNumber: taxNumber,
		Status:    model.StatusActive,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  owner,
			ModifiedBy: owner,
		},
	}
}

type UpdateAgencyRequest struct {
	Name    string `db:"name"    json:"name"    validate:"omitempty,max=100"`
	Email   string `db:"email"   json:"email"   validate:"omitempty,email,max=100"`
	Phone   string `db:"phone"   json:"phone"   validate:"omitempty,max=20"`
	Address string `db:"address" json:"address" validate:"omitempty,max=200"`
	Website string `db:"website" json:"website" validate:"omitempty,url,max=100"`
	Status  string `db:"status"  json:"status"  validate:"omitempty,oneof=active inactive pending"`
}

type AgencyResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Website   string `json:"website"`
	TaxNumber string `json:"tax_number,omitempty"`
	Status    string `json:"status"`
	gDto.Metadata
}

func (r *AgencyResponse) FromModel(model model.Agency) {
	r.ID = model.ID
	r.OwnerID = model.OwnerID
	r.Name = model.Name
	r.Email = model.Email
	r.Phone = model.Phone
	r.Address = model.Address
	r.Website = model.Website
	r.Status = model.Status

	if model.TaxNumber != nil {
		r.TaxNumber = *model.TaxNumber
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetAgenciesResponse struct {
	Agencies  []AgencyResponse `json:"agencies"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetAgenciesResponse) FromModels(models []model.Agency, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Agencies = make([]AgencyResponse, len(models))
	for i, mod := range models {
		r.Agencies[i].FromModel(mod)
	}
}
