package repository

import (
	"log"
	"time"

	"go-khata-ledger/internal/model"

	"github.com/google/uuid"
)

// Gateway is the persistence entry point for the rest of the application.
// It wraps an optional remote store and the always-present local fallback
// with a single per-call policy: attempt the remote operation first, and on
// any remote failure run the same logical operation against the local store.
//
// Reads degrade to a possibly stale local result; writes that fall back are
// committed to the local store instead and stay there — no reconciliation is
// attempted. IDs and timestamps are assigned before dispatch so a fallback
// write keeps the identity the caller already saw.
type Gateway struct {
	remote Store
	local  *LocalStore
}

// NewGateway builds a gateway. remote may be nil, which selects local-only
// mode (no remote backend configured).
func NewGateway(remote Store, local *LocalStore) *Gateway {
	return &Gateway{remote: remote, local: local}
}

// RemoteBacked reports whether a remote store is configured.
func (g *Gateway) RemoteBacked() bool { return g.remote != nil }

func (g *Gateway) degrade(op string, err error) {
	log.Printf("remote %s failed, falling back to local store: %v", op, err)
}

func stamp(base *model.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now()
	}
}

// --- Users ---

func (g *Gateway) CreateUser(user *model.User) error {
	stamp(&user.BaseModel)
	if g.remote != nil {
		err := g.remote.CreateUser(user)
		if err == nil {
			return nil
		}
		g.degrade("create user", err)
	}
	return g.local.CreateUser(user)
}

// A definitive remote not-found still consults the local store: records
// written during an outage exist only there.
func (g *Gateway) FindUserByEmail(email string) (*model.User, error) {
	if g.remote != nil {
		user, err := g.remote.FindUserByEmail(email)
		if err == nil {
			return user, nil
		}
		if err != ErrNotFound {
			g.degrade("find user by email", err)
		}
	}
	return g.local.FindUserByEmail(email)
}

func (g *Gateway) FindUserByID(id uuid.UUID) (*model.User, error) {
	if g.remote != nil {
		user, err := g.remote.FindUserByID(id)
		if err == nil {
			return user, nil
		}
		if err != ErrNotFound {
			g.degrade("find user by id", err)
		}
	}
	return g.local.FindUserByID(id)
}

func (g *Gateway) UpdateUser(user *model.User) error {
	if g.remote != nil {
		err := g.remote.UpdateUser(user)
		if err == nil {
			return nil
		}
		g.degrade("update user", err)
	}
	return g.local.UpdateUser(user)
}

// --- Contacts ---

func (g *Gateway) ListContacts(userID uuid.UUID) ([]model.Contact, error) {
	if g.remote != nil {
		contacts, err := g.remote.ListContacts(userID)
		if err == nil {
			return contacts, nil
		}
		g.degrade("list contacts", err)
	}
	return g.local.ListContacts(userID)
}

func (g *Gateway) FindContact(userID, id uuid.UUID) (*model.Contact, error) {
	if g.remote != nil {
		contact, err := g.remote.FindContact(userID, id)
		if err == nil {
			return contact, nil
		}
		if err != ErrNotFound {
			g.degrade("find contact", err)
		}
	}
	return g.local.FindContact(userID, id)
}

func (g *Gateway) CreateContact(contact *model.Contact) error {
	stamp(&contact.BaseModel)
	if g.remote != nil {
		err := g.remote.CreateContact(contact)
		if err == nil {
			return nil
		}
		g.degrade("create contact", err)
	}
	return g.local.CreateContact(contact)
}

func (g *Gateway) UpdateContact(userID, id uuid.UUID, updates ContactUpdate) error {
	if g.remote != nil {
		err := g.remote.UpdateContact(userID, id, updates)
		if err == nil {
			return nil
		}
		g.degrade("update contact", err)
	}
	return g.local.UpdateContact(userID, id, updates)
}

// DeleteContact cascades inside whichever backend the delete lands in; there
// is no cross-backend cascade.
func (g *Gateway) DeleteContact(userID, id uuid.UUID) error {
	if g.remote != nil {
		err := g.remote.DeleteContact(userID, id)
		if err == nil {
			return nil
		}
		g.degrade("delete contact", err)
	}
	return g.local.DeleteContact(userID, id)
}

// --- Transactions ---

func (g *Gateway) ListTransactions(userID uuid.UUID) ([]model.Transaction, error) {
	if g.remote != nil {
		transactions, err := g.remote.ListTransactions(userID)
		if err == nil {
			return transactions, nil
		}
		g.degrade("list transactions", err)
	}
	return g.local.ListTransactions(userID)
}

func (g *Gateway) CreateTransaction(tx *model.Transaction) error {
	stamp(&tx.BaseModel)
	if g.remote != nil {
		err := g.remote.CreateTransaction(tx)
		if err == nil {
			return nil
		}
		g.degrade("create transaction", err)
	}
	return g.local.CreateTransaction(tx)
}

// --- Session record (local by design) ---

func (g *Gateway) SaveSession(session *model.Session) error {
	return g.local.SaveSession(session)
}

func (g *Gateway) LoadSession() *model.Session {
	return g.local.LoadSession()
}

// ClearSession always succeeds against the local store regardless of remote
// health; sign-out must never be blocked by a remote error.
func (g *Gateway) ClearSession() error {
	return g.local.ClearSession()
}
