package model

import (
	gModel "tripmarket/shared/model"
)

const (
	EntityName = "booking"
	TableName  = "trip_bookings"
)

const (
	FieldID         = "id"
	FieldTripID     = "trip_id"
	FieldAgencyID   = "agency_id"
	FieldTripOTP    = "trip_otp"
	FieldCustomerID = "customer_id"
	FieldStatus     = "status"
)

const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// Booking records one capacity slot of a trip. TripOTP and TotalAmount are
// copied from the trip at booking time and never follow later trip edits.
type Booking struct {
	ID              string  `db:"id"`
	TripID          string  `db:"trip_id"`
	AgencyID        string  `db:"agency_id"`
	TripOTP         string  `db:"trip_otp"`
	CustomerID      string  `db:"customer_id"`
	CustomerName    string  `db:"customer_name"`
	CustomerEmail   string  `db:"customer_email"`
	CustomerPhone   string  `db:"customer_phone"`
	Status          string  `db:"status"`
	TotalAmount     float64 `db:"total_amount"`
	SpecialRequests string  `db:"special_requests"`
	gModel.Metadata
}
