package repository

import (
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	GetBySchoolID(schoolID uint, offset, limit int) ([]models.User, error)
	CountBySchoolID(schoolID uint) (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// PromptRepository defines the interface for prompt-related database operations
type PromptRepository interface {
	Create(prompt *models.Prompt) error
	GetByID(id uint) (*models.Prompt, error)
	GetByUUID(uuid string) (*models.Prompt, error)
	GetByShareLink(shareLink string) (*models.Prompt, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Prompt, error)
	GetPublic(offset, limit int) ([]models.Prompt, error)
	GetVisibleToSchool(schoolID uint, offset, limit int) ([]models.Prompt, error)
	Update(prompt *models.Prompt) error
	Delete(id uint) error
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
	Search(query string) ([]models.Prompt, error)
	IncrementExecutionCount(id uint) error
	IncrementUnlockCount(id uint) error
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// CollectionRepository defines the interface for collection operations
type CollectionRepository interface {
	Create(collection *models.Collection) error
	GetByID(id uint) (*models.Collection, error)
	GetByUserID(userID uint) ([]models.Collection, error)
	GetPublic(offset, limit int) ([]models.Collection, error)
	Update(collection *models.Collection) error
	Delete(id uint) error
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
}

// GroupRepository defines the interface for group and membership operations
type GroupRepository interface {
	Create(group *models.Group) error
	GetByID(id uint) (*models.Group, error)
	GetByOwnerID(ownerID uint) ([]models.Group, error)
	GetByMemberID(userID uint) ([]models.Group, error)
	Update(group *models.Group) error
	Delete(id uint) error
	AddMember(groupID, userID uint, role string) error
	RemoveMember(groupID, userID uint) error
	IsMember(groupID, userID uint) (bool, error)
	GetMembers(groupID uint) ([]models.GroupMember, error)
	CountMembers(groupID uint) (int64, error)
}

// SchoolRepository defines the interface for school operations
type SchoolRepository interface {
	Create(school *models.School) error
	GetByID(id uint) (*models.School, error)
	GetBySlug(slug string) (*models.School, error)
	GetAll() ([]models.School, error)
	Update(school *models.School) error
	Delete(id uint) error
	Count() (int64, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
}

// PaymentRepository defines the interface for payment and subscription queries
// used by the admin and user-facing billing pages. The checkout flow itself
// talks to the payment service, not this repository.
type PaymentRepository interface {
	GetByID(id uint) (*models.Payment, error)
	GetByPublicID(publicID string) (*models.Payment, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Payment, error)
	List(offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	SumPaidAmountVND() (int64, error)
	ListSubscriptionsByUser(userID uint) ([]models.Subscription, error)
	ListPaidBetween(from, to time.Time) ([]models.Payment, error)
	ListPaidBetweenForSchool(from, to time.Time, schoolID uint) ([]models.Payment, error)
}

// QueueRepository defines the interface for cache/queue operations
type QueueRepository interface {
	FindKeysByPatterns(patterns []string) ([]string, error)
	GetValue(key string) (string, error)
	GetTTL(key string) (time.Duration, error)
	DeleteKeys(keys []string) (int64, error)
}

// UserWithStats represents a user with additional statistics
type UserWithStats struct {
	User            models.User
	PromptCount     int64
	CollectionCount int64
	ExecutionsUsed  int64
}

// UserStats provides aggregated counts for a single user.
type UserStats struct {
	PromptCount     int64
	CollectionCount int64
	ExecutionsUsed  int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Prompt     PromptRepository
	Collection CollectionRepository
	Group      GroupRepository
	School     SchoolRepository
	Payment    PaymentRepository
	Queue      QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Prompt:     NewPromptRepository(db),
		Collection: NewCollectionRepository(db),
		Group:      NewGroupRepository(db),
		School:     NewSchoolRepository(db),
		Payment:    NewPaymentRepository(db),
		Queue:      NewQueueRepository(),
	}
}
