package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	// TxCreditGiven: the owner gave money/goods on credit, the contact's
	// balance increases (they owe more).
	TxCreditGiven TransactionType = "CREDIT_GIVEN"
	// TxPaymentReceived: the owner received money, the contact's balance
	// decreases.
	TxPaymentReceived TransactionType = "PAYMENT_RECEIVED"
)

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// TransactionItem is a line item on a goods-on-credit entry. Items have no
// identity of their own; they are serialized as part of the transaction row.
type TransactionItem struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// Transaction is a single khata entry. Entries are append-only: there is no
// update path, and deletion only happens as a cascade from contact deletion.
type Transaction struct {
	BaseModel
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	ContactID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"contact_id" validate:"uuid_required"`
	Amount      float64           `gorm:"not null" json:"amount" validate:"required,gt=0"`
	Type        TransactionType   `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=CREDIT_GIVEN PAYMENT_RECEIVED"`
	Description string            `gorm:"type:text" json:"description"`
	Items       []TransactionItem `gorm:"serializer:json;type:jsonb" json:"items,omitempty"`
	Date        time.Time         `gorm:"type:date;not null;index" json:"date"`
}

// DateString returns the entry's calendar date in wire format.
func (t *Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}
