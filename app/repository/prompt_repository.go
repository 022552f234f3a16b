package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// promptRepository implements the PromptRepository interface
type promptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a new prompt repository instance
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

// Create creates a new prompt in the database
func (r *promptRepository) Create(prompt *models.Prompt) error {
	return r.db.Create(prompt).Error
}

// GetByID retrieves a prompt by its ID
func (r *promptRepository) GetByID(id uint) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.Preload("User").First(&prompt, id).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// GetByUUID retrieves a prompt by its UUID
func (r *promptRepository) GetByUUID(uuid string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.Preload("User").Where("uuid = ?", uuid).First(&prompt).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// GetByShareLink retrieves a prompt by its share link
func (r *promptRepository) GetByShareLink(shareLink string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.Preload("User").Where("share_link = ?", shareLink).First(&prompt).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// GetByUserID retrieves prompts belonging to a specific user
func (r *promptRepository) GetByUserID(userID uint, offset, limit int) ([]models.Prompt, error) {
	var prompts []models.Prompt
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&prompts).Error
	return prompts, err
}

// GetPublic retrieves publicly visible prompts
func (r *promptRepository) GetPublic(offset, limit int) ([]models.Prompt, error) {
	var prompts []models.Prompt
	err := r.db.Preload("User").
		Where("visibility = ?", models.PromptVisibilityPublic).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&prompts).Error
	return prompts, err
}

// GetVisibleToSchool retrieves prompts shared school-wide by members of a school
func (r *promptRepository) GetVisibleToSchool(schoolID uint, offset, limit int) ([]models.Prompt, error) {
	var prompts []models.Prompt
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = prompts.user_id").
		Where("prompts.visibility = ? AND users.school_id = ?", models.PromptVisibilitySchool, schoolID).
		Order("prompts.created_at DESC").Offset(offset).Limit(limit).Find(&prompts).Error
	return prompts, err
}

// Update updates an existing prompt in the database
func (r *promptRepository) Update(prompt *models.Prompt) error {
	return r.db.Save(prompt).Error
}

// Delete soft deletes a prompt by its ID
func (r *promptRepository) Delete(id uint) error {
	return r.db.Delete(&models.Prompt{}, id).Error
}

// Count returns the total number of prompts
func (r *promptRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Prompt{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of prompts belonging to a user
func (r *promptRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Prompt{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Search searches public prompts by title, subject or grade level
func (r *promptRepository) Search(query string) ([]models.Prompt, error) {
	var prompts []models.Prompt
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Preload("User").
		Where("visibility = ?", models.PromptVisibilityPublic).
		Where("title LIKE ? OR subject LIKE ? OR grade_level LIKE ?", searchPattern, searchPattern, searchPattern).
		Find(&prompts).Error
	return prompts, err
}

// IncrementExecutionCount increments the execution counter for a prompt
func (r *promptRepository) IncrementExecutionCount(id uint) error {
	return r.db.Model(&models.Prompt{}).Where("id = ?", id).
		UpdateColumn("execution_count", gorm.Expr("execution_count + ?", 1)).Error
}

// IncrementUnlockCount increments the unlock counter for a prompt
func (r *promptRepository) IncrementUnlockCount(id uint) error {
	return r.db.Model(&models.Prompt{}).Where("id = ?", id).
		UpdateColumn("unlock_count", gorm.Expr("unlock_count + ?", 1)).Error
}

// GetDailyStats returns daily prompt creation statistics for a date range
func (r *promptRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	err := r.db.Model(&models.Prompt{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily prompt stats: %w", err)
	}

	dailyStats := make([]models.DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = models.DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}

	return dailyStats, nil
}
