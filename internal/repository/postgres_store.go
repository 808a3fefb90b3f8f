package repository

import (
	"errors"

	"go-khata-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// postgresStore is the remote row-store backend built on GORM.
type postgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) Store {
	return &postgresStore{db}
}

func (s *postgresStore) CreateUser(user *model.User) error {
	return s.db.Create(user).Error
}

func (s *postgresStore) FindUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *postgresStore) FindUserByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *postgresStore) UpdateUser(user *model.User) error {
	return s.db.Save(user).Error
}

func (s *postgresStore) ListContacts(userID uuid.UUID) ([]model.Contact, error) {
	var contacts []model.Contact
	err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&contacts).Error
	return contacts, err
}

func (s *postgresStore) FindContact(userID, id uuid.UUID) (*model.Contact, error) {
	var contact model.Contact
	if err := s.db.First(&contact, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contact, nil
}

func (s *postgresStore) CreateContact(contact *model.Contact) error {
	return s.db.Create(contact).Error
}

// UpdateContact writes only the provided fields and only when the record
// belongs to userID. Zero rows affected is not an error.
func (s *postgresStore) UpdateContact(userID, id uuid.UUID, updates ContactUpdate) error {
	fields := map[string]interface{}{}
	if updates.Name != nil {
		fields["name"] = *updates.Name
	}
	if updates.Phone != nil {
		fields["phone"] = *updates.Phone
	}
	if updates.Type != nil {
		fields["type"] = *updates.Type
	}
	if len(fields) == 0 {
		return nil
	}
	return s.db.Model(&model.Contact{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

func (s *postgresStore) DeleteContact(userID, id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ? AND user_id = ?", id, userID).
			Delete(&model.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&model.Contact{}).Error
	})
}

func (s *postgresStore) ListTransactions(userID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := s.db.Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func (s *postgresStore) CreateTransaction(tx *model.Transaction) error {
	return s.db.Create(tx).Error
}
