package payment

import (
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	CreatePayment(p *models.Payment) error
	GetPaymentByPublicID(publicID string) (*models.Payment, error)
	SavePayment(p *models.Payment) error
	ExpirePendingPayments(olderThan time.Time) (int64, error)
	CreateReturnEventIfNotExists(event *models.PaymentReturnEvent) (bool, *models.PaymentReturnEvent, error)
	SaveReturnEvent(event *models.PaymentReturnEvent) error
	MarkReturnProcessed(id uint, processingError string) error
	HasSignatureValidReturn(gateway, txnRef string) (bool, error)
	CreateSubscription(sub *models.Subscription) error
	ListSubscriptionsByUser(userID uint) ([]models.Subscription, error)
	ExpireDueSubscriptions(now time.Time) (int64, error)
	GetOrCreateUserSettings(userID uint) (*models.UserSettings, error)
	SaveUserSettings(us *models.UserSettings) error
	GetUserSchool(userID uint) (*models.School, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) GetPaymentByPublicID(publicID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("public_id = ?", publicID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) ExpirePendingPayments(olderThan time.Time) (int64, error) {
	res := r.db.Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, olderThan).
		Update("status", models.PaymentStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *gormRepository) CreateReturnEventIfNotExists(event *models.PaymentReturnEvent) (bool, *models.PaymentReturnEvent, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "gateway"},
			{Name: "txn_ref"},
		},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, nil, res.Error
	}
	if res.RowsAffected > 0 {
		return true, event, nil
	}

	var existing models.PaymentReturnEvent
	if err := r.db.Where("gateway = ? AND txn_ref = ?", event.Gateway, event.TxnRef).
		First(&existing).Error; err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

func (r *gormRepository) SaveReturnEvent(event *models.PaymentReturnEvent) error {
	return r.db.Save(event).Error
}

func (r *gormRepository) HasSignatureValidReturn(gateway, txnRef string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentReturnEvent{}).
		Where("gateway = ? AND txn_ref = ? AND signature_valid = ?", gateway, txnRef, true).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) MarkReturnProcessed(id uint, processingError string) error {
	now := time.Now()
	return r.db.Model(&models.PaymentReturnEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *gormRepository) ExpireDueSubscriptions(now time.Time) (int64, error) {
	res := r.db.Model(&models.Subscription{}).
		Where("status = ? AND current_period_end IS NOT NULL AND current_period_end < ?", models.SubscriptionStatusActive, now).
		Update("status", models.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *gormRepository) GetOrCreateUserSettings(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

func (r *gormRepository) SaveUserSettings(us *models.UserSettings) error {
	return r.db.Save(us).Error
}

func (r *gormRepository) GetUserSchool(userID uint) (*models.School, error) {
	var user models.User
	if err := r.db.Select("id", "school_id").First(&user, userID).Error; err != nil {
		return nil, err
	}
	if user.SchoolID == nil {
		return nil, nil
	}

	var school models.School
	if err := r.db.First(&school, *user.SchoolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &school, nil
}
