package repository

import (
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByID retrieves a payment by its numeric ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByPublicID retrieves a payment by its public UUID
func (r *paymentRepository) GetByPublicID(publicID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("public_id = ?", publicID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByUserID retrieves a user's payments, newest first
func (r *paymentRepository) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// List retrieves a paginated list of all payments
func (r *paymentRepository) List(offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("User").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of payments in a given status
func (r *paymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// SumPaidAmountVND returns the total VND amount across paid payments
func (r *paymentRepository) SumPaidAmountVND() (int64, error) {
	var total int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(amount_vnd), 0)").Row().Scan(&total)
	return total, err
}

// ListSubscriptionsByUser retrieves all subscriptions for a user, newest first
func (r *paymentRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// ListPaidBetween retrieves paid payments within a time range for export
func (r *paymentRepository) ListPaidBetween(from, to time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("User").
		Where("status = ? AND paid_at BETWEEN ? AND ?", models.PaymentStatusPaid, from, to).
		Order("paid_at ASC").Find(&payments).Error
	return payments, err
}

// ListPaidBetweenForSchool restricts the export range to payments made by
// members of one school.
func (r *paymentRepository) ListPaidBetweenForSchool(from, to time.Time, schoolID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = payments.user_id").
		Where("users.school_id = ?", schoolID).
		Where("payments.status = ? AND payments.paid_at BETWEEN ? AND ?", models.PaymentStatusPaid, from, to).
		Order("payments.paid_at ASC").Find(&payments).Error
	return payments, err
}
