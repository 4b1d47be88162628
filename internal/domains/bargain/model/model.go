package model

import (
	"time"
	gModel "tripmarket/shared/model"
)

const (
	EntityName = "bargain_request"
	TableName  = "bargain_requests"
)

const (
	FieldID         = "id"
	FieldTripID     = "trip_id"
	FieldAgencyID   = "agency_id"
	FieldCustomerID = "customer_id"
	FieldStatus     = "status"
)

// Status lifecycle: pending moves to waiting_list or rejected by the agency;
// a pending request can instead be deleted by its submitter. waiting_list and
// rejected are terminal.
const (
	StatusPending     = "pending"
	StatusWaitingList = "waiting_list"
	StatusRejected    = "rejected"
)

type BargainRequest struct {
	ID               string     `db:"id"`
	TripID           string     `db:"trip_id"`
	AgencyID         string     `db:"agency_id"`
	CustomerID       string     `db:"customer_id"`
	CustomerName     string     `db:"customer_name"`
	CustomerEmail    string     `db:"customer_email"`
	CustomerPhone    string     `db:"customer_phone"`
	Budget           float64    `db:"budget"`
	DesiredStartDate *time.Time `db:"desired_start_date"`
	DesiredEndDate   *time.Time `db:"desired_end_date"`
	Destination      string     `db:"destination"`
	Status           string     `db:"status"`
	gModel.Metadata
}
