package dto

import (
	"time"
	"tripmarket/internal/domains/trip/model"
	"tripmarket/shared"
	gDto "tripmarket/shared/dto"
	gModel "tripmarket/shared/model"
	"tripmarket/shared/timezone"

	"github.com/google/uuid"
)

type CreateTripRequest struct {
	AgencyID          string     `json:"agency_id"          validate:"required,uuid4"`
	Name              string     `json:"name"               validate:"required,max=150"`
	Price             float64    `json:"price"              validate:"gte=0"`
	Destinations      []string   `json:"destinations"       validate:"required,min=1,dive,required"`
	DepartureAt       *time.Time `json:"departure_at"       validate:"omitempty"`
	ArrivalAt         *time.Time `json:"arrival_at"         validate:"omitempty"`
	DepartureLocation string     `json:"departure_location" validate:"omitempty,max=150"`
	ArrivalLocation   string     `json:"arrival_location"   validate:"omitempty,max=150"`
	TransportMode     string     `json:"transport_mode"     validate:"omitempty,oneof=bus train flight car boat mixed unspecified"`
	Description       string     `json:"description"        validate:"omitempty,max=5000"`
	Inclusions        string     `json:"inclusions"         validate:"omitempty,max=2000"`
	Exclusions        string     `json:"exclusions"         validate:"omitempty,max=2000"`
	MaxCapacity       int        `json:"max_capacity"       validate:"required,min=1"`

	// ConfirmationCode is an optional client-supplied candidate. It is tried
	// first and silently replaced when it collides with another trip.
	ConfirmationCode string `json:"confirmation_code" validate:"omitempty,numeric,len=4"`
}

func (c *CreateTripRequest) ToModel(user, code string) model.Trip {
	transportMode := c.TransportMode
	if transportMode == "" {
		transportMode = model.TransportModeUnspecified
	}

	return model.Trip{
		ID:                uuid.NewString(),
		AgencyID:          c.AgencyID,
		Name:              c.Name,
		Price:             c.Price,
		Destinations:      c.Destinations,
		DepartureAt:       c.DepartureAt,
		ArrivalAt:         c.ArrivalAt,
		DepartureLocation: c.DepartureLocation,
		ArrivalLocation:   c.ArrivalLocation,
		TransportMode:     transportMode,
		Description:       c.Description,
		Inclusions:        c.Inclusions,
		Exclusions:        c.Exclusions,
		MaxCapacity:       c.MaxCapacity,
		CurrentBookings:   0,
		Status:            model.StatusActive,
		TripOTP:           &code,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateTripRequest struct {
	Name              string     `db:"name"               json:"name"               validate:"omitempty,max=150"`
	Price             float64    `db:"price"              json:"price"              validate:"omitempty,gte=0"`
	DepartureAt       *time.Time `db:"departure_at"       json:"departure_at"       validate:"omitempty"`
	ArrivalAt         *time.Time `db:"arrival_at"         json:"arrival_at"         validate:"omitempty"`
	DepartureLocation string     `db:"departure_location" json:"departure_location" validate:"omitempty,max=150"`
	ArrivalLocation   string     `db:"arrival_location"   json:"arrival_location"   validate:"omitempty,max=150"`
	TransportMode     string     `db:"transport_mode"     json:"transport_mode"     validate:"omitempty,oneof=bus train flight car boat mixed unspecified"`
	Description       string     `db:"description"        json:"description"        validate:"omitempty,max=5000"`
	Inclusions        string     `db:"inclusions"         json:"inclusions"         validate:"omitempty,max=2000"`
	Exclusions        string     `db:"exclusions"         json:"exclusions"         validate:"omitempty,max=2000"`
	MaxCapacity       int        `db:"max_capacity"       json:"max_capacity"       validate:"omitempty,min=1"`
	Status            string     `db:"status"             json:"status"             validate:"omitempty,oneof=active inactive completed cancelled"`
}

type TripImageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	StorageID string `json:"storage_id"`
	FileName  string `json:"file_name"`
}

func (r *TripImageResponse) FromModel(model model.TripImage) {
	r.ID = model.ID
	r.URL = model.URL
	r.StorageID = model.StorageID
	r.FileName = model.FileName
}

type TripResponse struct {
	ID                string              `json:"id"`
	AgencyID          string              `json:"agency_id"`
	Name              string              `json:"name"`
	Price             float64             `json:"price"`
	Destinations      []string            `json:"destinations"`
	DepartureAt       *time.Time          `json:"departure_at,omitempty"`
	ArrivalAt         *time.Time          `json:"arrival_at,omitempty"`
	DepartureLocation string              `json:"departure_location,omitempty"`
	ArrivalLocation   string              `json:"arrival_location,omitempty"`
	TransportMode     string              `json:"transport_mode"`
	Description       string              `json:"description,omitempty"`
	Inclusions        string              `json:"inclusions,omitempty"`
	Exclusions        string              `json:"exclusions,omitempty"`
	MaxCapacity       int                 `json:"max_capacity"`
	CurrentBookings   int                 `json:"current_bookings"`
	Status            string              `json:"status"`
	ConfirmationCode  string              `json:"confirmation_code,omitempty"`
	Images            []TripImageResponse `json:"images"`
	gDto.Metadata
}

func (r *TripResponse) FromModel(trip model.Trip, images []model.TripImage) {
	r.ID = trip.ID
	r.AgencyID = trip.AgencyID
	r.Name = trip.Name
	r.Price = trip.Price
	r.Destinations = trip.Destinations
	r.DepartureAt = trip.DepartureAt
	r.ArrivalAt = trip.ArrivalAt
	r.DepartureLocation = trip.DepartureLocation
	r.ArrivalLocation = trip.ArrivalLocation
	r.TransportMode = trip.TransportMode
	r.Description = trip.Description
	r.Inclusions = trip.Inclusions
	r.Exclusions = trip.Exclusions
	r.MaxCapacity = trip.MaxCapacity
	r.CurrentBookings = trip.CurrentBookings
	r.Status = trip.Status

	if trip.TripOTP != nil {
		r.ConfirmationCode = *trip.TripOTP
	}

	r.Images = make([]TripImageResponse, len(images))
	for i, img := range images {
		r.Images[i].FromModel(img)
	}

	r.Metadata.FromModel(trip.Metadata)
}

// CreateTripResponse reports every image that could not be stored so the
// caller can retry those uploads.
type CreateTripResponse struct {
	TripResponse
	FailedImages []string `json:"failed_images"`
}

type GetTripsResponse struct {
	Trips     []TripResponse `json:"trips"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetTripsResponse) FromModels(models []model.Trip, imagesByTrip map[string][]model.TripImage, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Trips = make([]TripResponse, len(models))
	for i, mod := range models {
		r.Trips[i].FromModel(mod, imagesByTrip[mod.ID])
	}
}
