package models

import "time"

const (
	PaymentGatewayVNPay = "vnpay"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

// Payment is one checkout attempt against the payment gateway. The PublicID
// is the identifier embedded as the last segment of the gateway transaction
// reference; the return handler resolves it back to this row.
type Payment struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	PublicID             string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	User                 User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Gateway              string     `gorm:"type:varchar(20);not null;default:'vnpay'" json:"gateway"`
	TierID               string     `gorm:"type:varchar(50);not null" json:"tier_id"`
	AmountVND            int64      `gorm:"not null" json:"amount_vnd"`
	Currency             string     `gorm:"type:varchar(10);not null;default:'VND'" json:"currency"`
	OrderInfo            string     `gorm:"type:varchar(255)" json:"order_info"`
	Status               string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TxnRef               string     `gorm:"type:varchar(191);index" json:"txn_ref"`
	GatewayTransactionNo string     `gorm:"type:varchar(100);default:''" json:"gateway_transaction_no"`
	PaidAt               *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the payment already reached a final status.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusFailed || p.Status == PaymentStatusExpired
}
