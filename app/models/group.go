package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

// Group is a class/working group of teachers who share prompts with each
// other. Members join via HMAC-signed invite links.
type Group struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"index" json:"owner_id"`
	Owner       User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	SchoolID    *uint          `gorm:"index;default:null" json:"school_id,omitempty"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=3,max=255"`
	Description string         `gorm:"type:text" json:"description"`
	Members     []GroupMember  `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// GroupMember links a user into a group with a role.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index:ux_group_members_group_user,unique,priority:1" json:"group_id"`
	UserID    uint      `gorm:"not null;index:ux_group_members_group_user,unique,priority:2" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Group) Validate() error {
	v := validator.New()

	return v.Struct(g)
}
