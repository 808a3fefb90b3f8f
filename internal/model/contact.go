package model

import "github.com/google/uuid"

type ContactType string

const (
	ContactCustomer ContactType = "CUSTOMER"
	ContactSupplier ContactType = "SUPPLIER"
)

// Contact is a customer or supplier in a user's khata. Deleting a contact
// cascades to all of its transactions.
type Contact struct {
	BaseModel
	UserID uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string      `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Phone  string      `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Type   ContactType `gorm:"type:varchar(10);not null" json:"type" validate:"required,oneof=CUSTOMER SUPPLIER"`
}

// ContactWithBalance is the derived dashboard view: a contact plus its running
// balance and most recent activity. Recomputed from the transaction log on
// every read, never persisted.
//
// Positive balance means the contact owes the ledger owner (receivable),
// negative means the ledger owner owes the contact (payable).
type ContactWithBalance struct {
	Contact
	Balance             float64 `json:"balance"`
	LastTransactionDate *string `json:"last_transaction_date,omitempty"`
}
