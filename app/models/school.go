package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// School is a tenant with an optional school-wide subscription. While the
// subscription window is active every member of the school is entitled to the
// school plan regardless of their individual plan.
type School struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=3,max=200"`
	Slug              string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug" validate:"required,min=3,max=200"`
	ContactEmail      string         `gorm:"type:varchar(200)" json:"contact_email" validate:"omitempty,email"`
	SeatCount         int            `gorm:"default:0" json:"seat_count"`
	SubscribedFrom    *time.Time     `gorm:"type:timestamp;default:null" json:"subscribed_from,omitempty"`
	SubscribedUntil   *time.Time     `gorm:"type:timestamp;default:null" json:"subscribed_until,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *School) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// HasActiveSubscription reports whether the school subscription window covers
// the given instant.
func (s *School) HasActiveSubscription(now time.Time) bool {
	if s == nil || s.SubscribedFrom == nil || s.SubscribedUntil == nil {
		return false
	}
	return !now.Before(*s.SubscribedFrom) && now.Before(*s.SubscribedUntil)
}
