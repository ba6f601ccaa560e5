package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile mirrors the account record keyed by the session subject.
// The premium flag is only flipped by the checkout flow.
type UserProfile struct {
	ID               uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name             string         `gorm:"size:255;not null" json:"name"`
	Email            string         `gorm:"size:255;not null" json:"email"`
	IsPremium        bool           `gorm:"not null;default:false" json:"is_premium"`
	StripeCustomerID string         `gorm:"size:255" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
