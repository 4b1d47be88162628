package model

import "tripmarket/shared/model"

const (
	TableName  = "agencies"
	EntityName = "agency"

	FieldID        = "id"
	FieldOwnerID   = "owner_id"
	FieldName      = "name"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldAddress   = "address"
	FieldWebsite   = "website"
	FieldTaxNumber = "tax_number"
	FieldStatus    = "status"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Agency is a marketplace tenant. OwnerID is the identity-provider subject
// that registered it; at most one agency exists per subject.
type Agency struct {
	ID        string  `db:"id"`
	OwnerID   string  `db:"owner_id"`
	Name      string  `db:"name"`
	Email     string  `db:"email"`
	Phone     string  `db:"phone"`
	Address   string  `db:"address"`
	Website   string  `db:"website"`
	TaxNumber *string `db:"tax_number"`
	Status    string  `db:"status"`
	model.Metadata
}
