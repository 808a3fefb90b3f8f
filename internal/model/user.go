package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated ledger owner. Every Contact and
// Transaction is scoped by the owning user's ID.
type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Name         string `gorm:"type:varchar(255)" json:"name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"` // Bumped on sign-out
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// Session is the locally persisted "who is signed in" record. It mirrors the
// last successful sign-in so identity survives a remote outage.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
}

// User reconstructs a minimal User from the session snapshot.
func (s *Session) User() *User {
	u := &User{Email: s.Email, Name: s.Name, IsActive: true}
	u.ID = s.UserID
	return u
}
