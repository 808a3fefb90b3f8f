// Package ledger derives balances and activity views from the transaction
// log. Everything here is a stateless projection: nothing is cached and
// nothing is persisted, so a recompute after any mutation is always fresh.
package ledger

import (
	"sort"

	"go-khata-ledger/internal/model"

	"github.com/google/uuid"
)

// Balance folds the contact's transactions into a running balance.
// CREDIT_GIVEN contributes +amount, PAYMENT_RECEIVED contributes -amount.
// Positive means the contact owes the ledger owner (receivable), negative
// means the owner owes the contact (payable). Addition commutes, so the
// result does not depend on list order.
func Balance(contactID uuid.UUID, transactions []model.Transaction) float64 {
	var balance float64
	for _, tx := range transactions {
		if tx.ContactID != contactID {
			continue
		}
		switch tx.Type {
		case model.TxCreditGiven:
			balance += tx.Amount
		case model.TxPaymentReceived:
			balance -= tx.Amount
		}
	}
	return balance
}

// LastActivity returns the calendar date of the contact's most recent entry.
// transactions must be in canonical order (date descending), so the first
// match is the answer. ok is false for contacts with no entries.
func LastActivity(contactID uuid.UUID, transactions []model.Transaction) (date string, ok bool) {
	for _, tx := range transactions {
		if tx.ContactID == contactID {
			return tx.DateString(), true
		}
	}
	return "", false
}

// WithBalances projects contacts into the dashboard view model: each contact
// with its balance and last activity, ranked by recency. Contacts without
// any transactions sort after every contact that has activity.
func WithBalances(contacts []model.Contact, transactions []model.Transaction) []model.ContactWithBalance {
	out := make([]model.ContactWithBalance, 0, len(contacts))
	for _, c := range contacts {
		view := model.ContactWithBalance{
			Contact: c,
			Balance: Balance(c.ID, transactions),
		}
		if date, ok := LastActivity(c.ID, transactions); ok {
			view.LastTransactionDate = &date
		}
		out = append(out, view)
	}
	// ISO dates compare correctly as strings.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastTransactionDate, out[j].LastTransactionDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})
	return out
}

// PlanSettlement sizes the single transaction that zeroes out a balance.
// A positive balance (they owe) settles with a PAYMENT_RECEIVED of exactly
// that amount; a negative one settles with a CREDIT_GIVEN of its magnitude.
// ok is false for a zero balance: there is nothing to settle.
func PlanSettlement(balance float64) (txType model.TransactionType, amount float64, ok bool) {
	switch {
	case balance > 0:
		return model.TxPaymentReceived, balance, true
	case balance < 0:
		return model.TxCreditGiven, -balance, true
	default:
		return "", 0, false
	}
}
