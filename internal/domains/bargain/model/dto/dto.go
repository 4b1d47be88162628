package dto

import (
	"time"
	"tripmarket/internal/domains/bargain/model"
	"tripmarket/shared"
	gDto "tripmarket/shared/dto"
	gModel "tripmarket/shared/model"
	"tripmarket/shared/timezone"

	"github.com/google/uuid"
)

type CreateBargainRequest struct {
	TripID           string     `json:"trip_id"            validate:"required,uuid4"`
	CustomerID       string     `json:"customer_id"        validate:"required"`
	CustomerName     string     `json:"customer_name"      validate:"required,max=100"`
	CustomerEmail    string     `json:"customer_email"     validate:"required,email,max=100"`
	CustomerPhone    string     `json:"customer_phone"     validate:"omitempty,max=20"`
	Budget           float64    `json:"budget"             validate:"gt=0"`
	DesiredStartDate *time.Time `json:"desired_start_date" validate:"omitempty"`
	DesiredEndDate   *time.Time `json:"desired_end_date"   validate:"omitempty"`
	Destination      string     `json:"destination"        validate:"omitempty,max=500"`
}

func (c *CreateBargainRequest) ToModel(agencyID, user string) model.BargainRequest {
	return model.BargainRequest{
		ID:               uuid.NewString(),
		TripID:           c.TripID,
		AgencyID:         agencyID,
		CustomerID:       c.CustomerID,
		CustomerName:     c.CustomerName,
		CustomerEmail:    c.CustomerEmail,
		CustomerPhone:    c.CustomerPhone,
		Budget:           c.Budget,
		DesiredStartDate: c.DesiredStartDate,
		DesiredEndDate:   c.DesiredEndDate,
		Destination:      c.Destination,
		Status:           model.StatusPending,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateBargainStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting_list rejected"`
}

type BargainResponse struct {
	ID               string     `json:"id"`
	TripID           string     `json:"trip_id"`
	AgencyID         string     `json:"agency_id"`
	CustomerID       string     `json:"customer_id"`
	CustomerName     string     `json:"customer_name"`
	CustomerEmail    string     `json:"customer_email"`
	CustomerPhone    string     `json:"customer_phone,omitempty"`
	Budget           float64    `json:"budget"`
	DesiredStartDate *time.Time `json:"desired_start_date,omitempty"`
	DesiredEndDate   *time.Time `json:"desired_end_date,omitempty"`
	Destination      string     `json:"destination,omitempty"`
	Status           string     `json:"status"`
	gDto.Metadata
}

func (r *BargainResponse) FromModel(model model.BargainRequest) {
	r.ID = model.ID
	r.TripID = model.TripID
	r.AgencyID = model.AgencyID
	r.CustomerID = model.CustomerID
	r.CustomerName = model.CustomerName
	r.CustomerEmail = model.CustomerEmail
	r.CustomerPhone = model.CustomerPhone
	r.Budget = model.Budget
	r.DesiredStartDate = model.DesiredStartDate
	r.DesiredEndDate = model.DesiredEndDate
	r.Destination = model.Destination
	r.Status = model.Status
	r.Metadata.FromModel(model.Metadata)
}

type GetBargainsResponse struct {
	BargainRequests []BargainResponse `json:"bargain_requests"`
	TotalPage       int               `json:"total_page"`
	TotalData       int               `json:"total_data"`
}

func (r *GetBargainsResponse) FromModels(models []model.BargainRequest, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.BargainRequests = make([]BargainResponse, len(models))
	for i, mod := range models {
		r.BargainRequests[i].FromModel(mod)
	}
}
