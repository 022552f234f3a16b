package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Subscription records an entitlement a user bought (or was granted) and maps
// it to an internal plan used by entitlements. One user can accumulate
// several rows over time; the reconciler picks the best active one.
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;index" json:"user_id"`
	PaymentID          *uint      `gorm:"index;default:null" json:"payment_id,omitempty"`
	Plan               string     `gorm:"type:varchar(50);not null;default:'free';index" json:"plan"`
	Status             string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
