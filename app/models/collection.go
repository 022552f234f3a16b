package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Collection groups prompts of a single owner.
type Collection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=3,max=255"`
	Description string         `gorm:"type:text" json:"description"`
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	Prompts     []Prompt       `gorm:"foreignKey:CollectionID" json:"prompts,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Collection) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// TogglePublic flips the public flag and persists it.
func (c *Collection) TogglePublic(db *gorm.DB) error {
	c.IsPublic = !c.IsPublic
	return db.Model(c).Update("is_public", c.IsPublic).Error
}
