package repository

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go-khata-ledger/internal/model"

	"github.com/google/uuid"
)

// snapshot is the on-disk shape of the local fallback store. The whole state
// is one JSON document; records carry their user_id, so partitioning is done
// by filtering, not by storage layout.
type snapshot struct {
	Version      int                 `json:"version"`
	Users        []model.User        `json:"users"`
	Contacts     []model.Contact     `json:"contacts"`
	Transactions []model.Transaction `json:"transactions"`
	Session      *model.Session      `json:"session,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// LocalStore is the on-device key-value fallback: a mutex-guarded JSON
// snapshot flushed to disk after every write. It implements the same Store
// surface as the remote backend and additionally persists the current
// session record.
type LocalStore struct {
	mu   sync.RWMutex
	file *os.File
	snap *snapshot
}

func OpenLocalStore(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	store := &LocalStore{file: f}
	if err := store.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return store, nil
}

func (s *LocalStore) Close() error { return s.file.Close() }

func (s *LocalStore) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		s.snap = &snapshot{Version: 1, UpdatedAt: time.Now()}
		return s.flushLocked()
	}
	dec := json.NewDecoder(s.file)
	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return err
	}
	s.snap = &snap
	return nil
}

func (s *LocalStore) flushLocked() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.snap); err != nil {
		return err
	}
	// truncate in case new content is shorter
	pos, _ := s.file.Seek(0, io.SeekCurrent)
	if err := s.file.Truncate(pos); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *LocalStore) withWrite(fn func(*snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.snap); err != nil {
		return err
	}
	s.snap.UpdatedAt = time.Now()
	return s.flushLocked()
}

func (s *LocalStore) withRead(fn func(*snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.snap)
}

func stampIdentity(base *model.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now()
	}
}

// --- Users ---

func (s *LocalStore) CreateUser(user *model.User) error {
	return s.withWrite(func(snap *snapshot) error {
		for _, u := range snap.Users {
			if u.Email == user.Email {
				return ErrEmailExists
			}
		}
		stampIdentity(&user.BaseModel)
		snap.Users = append(snap.Users, *user)
		return nil
	})
}

func (s *LocalStore) FindUserByEmail(email string) (*model.User, error) {
	var out *model.User
	s.withRead(func(snap *snapshot) {
		for i := range snap.Users {
			if snap.Users[i].Email == email {
				u := snap.Users[i]
				out = &u
				break
			}
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *LocalStore) FindUserByID(id uuid.UUID) (*model.User, error) {
	var out *model.User
	s.withRead(func(snap *snapshot) {
		for i := range snap.Users {
			if snap.Users[i].ID == id {
				u := snap.Users[i]
				out = &u
				break
			}
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *LocalStore) UpdateUser(user *model.User) error {
	return s.withWrite(func(snap *snapshot) error {
		for i := range snap.Users {
			if snap.Users[i].ID == user.ID {
				snap.Users[i] = *user
				return nil
			}
		}
		return ErrNotFound
	})
}

// --- Contacts ---

func (s *LocalStore) ListContacts(userID uuid.UUID) ([]model.Contact, error) {
	var out []model.Contact
	s.withRead(func(snap *snapshot) {
		for _, c := range snap.Contacts {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *LocalStore) FindContact(userID, id uuid.UUID) (*model.Contact, error) {
	var out *model.Contact
	s.withRead(func(snap *snapshot) {
		for i := range snap.Contacts {
			if snap.Contacts[i].ID == id && snap.Contacts[i].UserID == userID {
				c := snap.Contacts[i]
				out = &c
				break
			}
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *LocalStore) CreateContact(contact *model.Contact) error {
	return s.withWrite(func(snap *snapshot) error {
		stampIdentity(&contact.BaseModel)
		snap.Contacts = append(snap.Contacts, *contact)
		return nil
	})
}

// UpdateContact applies the partial update only when the record belongs to
// userID; otherwise it is a silent no-op.
func (s *LocalStore) UpdateContact(userID, id uuid.UUID, updates ContactUpdate) error {
	return s.withWrite(func(snap *snapshot) error {
		for i := range snap.Contacts {
			if snap.Contacts[i].ID != id || snap.Contacts[i].UserID != userID {
				continue
			}
			if updates.Name != nil {
				snap.Contacts[i].Name = *updates.Name
			}
			if updates.Phone != nil {
				snap.Contacts[i].Phone = *updates.Phone
			}
			if updates.Type != nil {
				snap.Contacts[i].Type = *updates.Type
			}
			return nil
		}
		return nil
	})
}

// DeleteContact removes the contact and cascades to its transactions. The
// ownership guard keeps another user's records untouched.
func (s *LocalStore) DeleteContact(userID, id uuid.UUID) error {
	return s.withWrite(func(snap *snapshot) error {
		owned := false
		kept := snap.Contacts[:0]
		for _, c := range snap.Contacts {
			if c.ID == id && c.UserID == userID {
				owned = true
				continue
			}
			kept = append(kept, c)
		}
		snap.Contacts = kept
		if !owned {
			return nil
		}
		keptTx := snap.Transactions[:0]
		for _, t := range snap.Transactions {
			if t.ContactID == id && t.UserID == userID {
				continue
			}
			keptTx = append(keptTx, t)
		}
		snap.Transactions = keptTx
		return nil
	})
}

// --- Transactions ---

func (s *LocalStore) ListTransactions(userID uuid.UUID) ([]model.Transaction, error) {
	var out []model.Transaction
	s.withRead(func(snap *snapshot) {
		for _, t := range snap.Transactions {
			if t.UserID == userID {
				out = append(out, t)
			}
		}
	})
	// Ordering contract: date descending, created_at descending tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *LocalStore) CreateTransaction(tx *model.Transaction) error {
	return s.withWrite(func(snap *snapshot) error {
		stampIdentity(&tx.BaseModel)
		snap.Transactions = append(snap.Transactions, *tx)
		return nil
	})
}

// --- Session record ---

// SaveSession persists the signed-in identity so it survives both restarts
// and remote outages.
func (s *LocalStore) SaveSession(session *model.Session) error {
	return s.withWrite(func(snap *snapshot) error {
		snap.Session = session
		return nil
	})
}

func (s *LocalStore) LoadSession() *model.Session {
	var out *model.Session
	s.withRead(func(snap *snapshot) {
		if snap.Session != nil {
			sess := *snap.Session
			out = &sess
		}
	})
	return out
}

func (s *LocalStore) ClearSession() error {
	return s.withWrite(func(snap *snapshot) error {
		snap.Session = nil
		return nil
	})
}
