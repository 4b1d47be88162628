package model

import (
	"time"
	gModel "tripmarket/shared/model"

	"github.com/lib/pq"
)

const (
	EntityName = "trip"
	TableName  = "trips"

	ImageEntityName = "trip_image"
	ImageTableName  = "trip_images"
)

const (
	FieldID              = "id"
	FieldAgencyID        = "agency_id"
	FieldName            = "name"
	FieldPrice           = "price"
	FieldStatus          = "status"
	FieldTripOTP         = "trip_otp"
	FieldMaxCapacity     = "max_capacity"
	FieldCurrentBookings = "current_bookings"

	ImageFieldID     = "id"
	ImageFieldTripID = "trip_id"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	TransportModeBus         = "bus"
	TransportModeTrain       = "train"
	TransportModeFlight      = "flight"
	TransportModeCar         = "car"
	TransportModeBoat        = "boat"
	TransportModeMixed       = "mixed"
	TransportModeUnspecified = "unspecified"
)

// Trip is a published travel package. TripOTP is the confirmation code copied
// onto every booking; it is nullable in storage but unique among assigned values.
type Trip struct {
	ID                string         `db:"id"`
	AgencyID          string         `db:"agency_id"`
	Name              string         `db:"name"`
	Price             float64        `db:"price"`
	Destinations      pq.StringArray `db:"destinations"`
	DepartureAt       *time.Time     `db:"departure_at"`
	ArrivalAt         *time.Time     `db:"arrival_at"`
	DepartureLocation string         `db:"departure_location"`
	ArrivalLocation   string         `db:"arrival_location"`
	TransportMode     string         `db:"transport_mode"`
	Description       string         `db:"description"`
	Inclusions        string         `db:"inclusions"`
	Exclusions        string         `db:"exclusions"`
	MaxCapacity       int            `db:"max_capacity"`
	CurrentBookings   int            `db:"current_bookings"`
	Status            string         `db:"status"`
	TripOTP           *string        `db:"trip_otp"`
	gModel.Metadata
}

type TripImage struct {
	ID        string `db:"id"`
	TripID    string `db:"trip_id"`
	URL       string `db:"url"`
	StorageID string `db:"storage_id"`
	FileName  string `db:"file_name"`
	gModel.Metadata
}
