package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduprompt/eduprompt/internal/pkg/shortener"
)

const (
	PromptVisibilityPrivate = "private"
	PromptVisibilitySchool  = "school"
	PromptVisibilityPublic  = "public"
)

// Prompt is a reusable teaching prompt owned by a teacher, optionally filed
// into a collection and shared via a short link.
type Prompt struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID         uint           `gorm:"index" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CollectionID   *uint          `gorm:"index;default:null" json:"collection_id,omitempty"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Body           string         `gorm:"type:longtext;not null" json:"body" validate:"required"`
	Subject        string         `gorm:"type:varchar(100)" json:"subject" validate:"max=100"`
	GradeLevel     string         `gorm:"type:varchar(50)" json:"grade_level" validate:"max=50"`
	Visibility     string         `gorm:"type:varchar(20);default:'private'" json:"visibility" validate:"oneof=private school public"`
	ShareLink      string         `gorm:"type:varchar(255) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex" json:"share_link"`
	ExecutionCount int            `gorm:"default:0" json:"execution_count"`
	UnlockCount    int            `gorm:"default:0" json:"unlock_count"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Prompt) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// BeforeCreate assigns the UUID and a placeholder share link before insert.
func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.ShareLink == "" {
		// Real link needs the auto-increment ID, set after insert.
		p.ShareLink = "temp-" + p.UUID[:8]
	}
	return nil
}

// AfterCreate replaces the placeholder share link with the ID-based short code.
func (p *Prompt) AfterCreate(tx *gorm.DB) error {
	if len(p.ShareLink) >= 5 && p.ShareLink[:5] == "temp-" {
		p.ShareLink = shortener.EncodeID(p.ID)
		return tx.Model(p).Update("share_link", p.ShareLink).Error
	}
	return nil
}
