package dto

import (
	"tripmarket/internal/domains/booking/model"
	tripModel "tripmarket/internal/domains/trip/model"
	"tripmarket/shared"
	gDto "tripmarket/shared/dto"
	gModel "tripmarket/shared/model"
	"tripmarket/shared/timezone"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	TripID          string `json:"trip_id"          validate:"required,uuid4"`
	CustomerID      string `json:"customer_id"      validate:"required"`
	CustomerName    string `json:"customer_name"    validate:"required,max=100"`
	CustomerEmail   string `json:"customer_email"   validate:"required,email,max=100"`
	CustomerPhone   string `json:"customer_phone"   validate:"omitempty,max=20"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=2000"`
}

func (c *CreateBookingRequest) ToModel(trip tripModel.Trip, user string) model.Booking {
	tripOTP := ""
	if trip.TripOTP != nil {
		tripOTP = *trip.TripOTP
	}

	return model.Booking{
		ID:              uuid.NewString(),
		TripID:          trip.ID,
		AgencyID:        trip.AgencyID,
		TripOTP:         tripOTP,
		CustomerID:      c.CustomerID,
		CustomerName:    c.CustomerName,
		CustomerEmail:   c.CustomerEmail,
		CustomerPhone:   c.CustomerPhone,
		Status:          model.StatusConfirmed,
		TotalAmount:     trip.Price,
		SpecialRequests: c.SpecialRequests,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed pending cancelled"`
}

type BookingResponse struct {
	ID               string  `json:"id"`
	TripID           string  `json:"trip_id"`
	AgencyID         string  `json:"agency_id"`
	ConfirmationCode string  `json:"confirmation_code"`
	CustomerID       string  `json:"customer_id"`
	CustomerName     string  `json:"customer_name"`
	CustomerEmail    string  `json:"customer_email"`
	CustomerPhone    string  `json:"customer_phone,omitempty"`
	Status           string  `json:"status"`
	TotalAmount      float64 `json:"total_amount"`
	SpecialRequests  string  `json:"special_requests,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.TripID = model.TripID
	r.AgencyID = model.AgencyID
	r.ConfirmationCode = model.TripOTP
	r.CustomerID = model.CustomerID
	r.CustomerName = model.CustomerName
	r.CustomerEmail = model.CustomerEmail
	r.CustomerPhone = model.CustomerPhone
	r.Status = model.Status
	r.TotalAmount = model.TotalAmount
	r.SpecialRequests = model.SpecialRequests
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
