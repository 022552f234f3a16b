package repository

import (
	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// collectionRepository implements the CollectionRepository interface
type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository instance
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create creates a new collection in the database
func (r *collectionRepository) Create(collection *models.Collection) error {
	return r.db.Create(collection).Error
}

// GetByID retrieves a collection with its prompts by ID
func (r *collectionRepository) GetByID(id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Preload("User").Preload("Prompts").First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByUserID retrieves all collections belonging to a specific user
func (r *collectionRepository) GetByUserID(userID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&collections).Error
	return collections, err
}

// GetPublic retrieves publicly shared collections
func (r *collectionRepository) GetPublic(offset, limit int) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Preload("User").Where("is_public = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&collections).Error
	return collections, err
}

// Update updates an existing collection in the database
func (r *collectionRepository) Update(collection *models.Collection) error {
	return r.db.Save(collection).Error
}

// Delete soft deletes a collection and detaches its prompts
func (r *collectionRepository) Delete(id uint) error {
	// Detach prompts first so they fall back to uncategorized
	err := r.db.Model(&models.Prompt{}).Where("collection_id = ?", id).
		Update("collection_id", nil).Error
	if err != nil {
		return err
	}

	return r.db.Delete(&models.Collection{}, id).Error
}

// Count returns the total number of collections
func (r *collectionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Collection{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of collections belonging to a user
func (r *collectionRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Collection{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
