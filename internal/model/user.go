package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account holder in the marketplace
type User struct {
	BaseModel
	Name              string     `gorm:"type:varchar(255);not null" json:"name"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never the plaintext
	Role              Role       `gorm:"type:varchar(10);not null;index;check:role IN ('admin','farmer','buyer','agent')" json:"role"`
	Phone             string     `gorm:"type:varchar(20)" json:"phone"`
	Address           string     `gorm:"type:text" json:"address"`
	PreferredLanguage string     `gorm:"type:varchar(8);default:'en'" json:"preferred_language"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	TokenVersion      string     `gorm:"type:varchar(64);default:''" json:"-"` // For single session enforcement
	LastSeenAt        *time.Time `json:"last_seen_at,omitempty"`
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

// Actor builds the explicit caller context for this user
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

// Language returns the preferred language, defaulting to English
func (u *User) Language() string {
	if u.PreferredLanguage == "" {
		return "en"
	}
	return u.PreferredLanguage
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID                uint       `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              Role       `json:"role"`
	Phone             string     `json:"phone"`
	Address           string     `json:"address"`
	PreferredLanguage string     `json:"preferred_language"`
	IsActive          bool       `json:"is_active"`
	LastSeenAt        *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		Phone:             u.Phone,
		Address:           u.Address,
		PreferredLanguage: u.Language(),
		IsActive:          u.IsActive,
		LastSeenAt:        u.LastSeenAt,
		CreatedAt:         u.CreatedAt,
	}
}
