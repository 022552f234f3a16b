package repository

import (
	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// schoolRepository implements the SchoolRepository interface
type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates a new school repository instance
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

// Create creates a new school in the database
func (r *schoolRepository) Create(school *models.School) error {
	return r.db.Create(school).Error
}

// GetByID retrieves a school by its ID
func (r *schoolRepository) GetByID(id uint) (*models.School, error) {
	var school models.School
	err := r.db.First(&school, id).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

// GetBySlug retrieves a school by its slug
func (r *schoolRepository) GetBySlug(slug string) (*models.School, error) {
	var school models.School
	err := r.db.Where("slug = ?", slug).First(&school).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

// GetAll retrieves all schools
func (r *schoolRepository) GetAll() ([]models.School, error) {
	var schools []models.School
	err := r.db.Order("name ASC").Find(&schools).Error
	return schools, err
}

// Update updates an existing school in the database
func (r *schoolRepository) Update(school *models.School) error {
	return r.db.Save(school).Error
}

// Delete soft deletes a school by its ID
func (r *schoolRepository) Delete(id uint) error {
	return r.db.Delete(&models.School{}, id).Error
}

// Count returns the total number of schools
func (r *schoolRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.School{}).Count(&count).Error
	return count, err
}

// SlugExists checks whether a slug is already taken
func (r *schoolRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.School{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID checks whether a slug is taken by a different school
func (r *schoolRepository) SlugExistsExceptID(slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.School{}).Where("slug = ? AND id <> ?", slug, id).Count(&count).Error
	return count > 0, err
}
