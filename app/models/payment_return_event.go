package models

import "time"

// PaymentReturnEvent stores every gateway redirect-back we processed, keyed
// uniquely by (gateway, txn_ref) so that a duplicate return (reload, replay)
// never finalizes the same transaction twice.
type PaymentReturnEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Gateway         string     `gorm:"type:varchar(20);not null;index:ux_payment_return_events_ref,unique,priority:1" json:"gateway"`
	TxnRef          string     `gorm:"type:varchar(191);not null;index:ux_payment_return_events_ref,unique,priority:2" json:"txn_ref"`
	ResponseCode    string     `gorm:"type:varchar(10);not null" json:"response_code"`
	RawQuery        string     `gorm:"type:text" json:"raw_query"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
