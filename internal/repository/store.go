package repository

import (
	"errors"

	"go-khata-ledger/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrEmailExists = errors.New("email already exists")
)

// ContactUpdate carries the mutable contact fields for a partial update.
// Nil fields are left untouched.
type ContactUpdate struct {
	Name  *string
	Phone *string
	Type  *model.ContactType
}

// Store is the uniform CRUD surface shared by the remote row store and the
// local fallback store. Every operation is scoped to the owning user: list
// calls filter by owner and update/delete calls against another user's
// records are silent no-ops rather than errors.
type Store interface {
	// Users
	CreateUser(user *model.User) error
	FindUserByEmail(email string) (*model.User, error)
	FindUserByID(id uuid.UUID) (*model.User, error)
	UpdateUser(user *model.User) error

	// Contacts
	ListContacts(userID uuid.UUID) ([]model.Contact, error)
	FindContact(userID, id uuid.UUID) (*model.Contact, error)
	CreateContact(contact *model.Contact) error
	UpdateContact(userID, id uuid.UUID, updates ContactUpdate) error
	// DeleteContact removes a contact and cascades to all of its
	// transactions within the same backend.
	DeleteContact(userID, id uuid.UUID) error

	// Transactions are append-only: no update, no standalone delete.
	// ListTransactions returns entries ordered by date descending with
	// created_at descending as the tie-break; the ledger engine relies on
	// this ordering to read "last activity" off the head of the list.
	ListTransactions(userID uuid.UUID) ([]model.Transaction, error)
	CreateTransaction(tx *model.Transaction) error
}
