package repository

import (
	"errors"

	"github.com/eduprompt/eduprompt/app/models"
	"gorm.io/gorm"
)

// groupRepository implements the GroupRepository interface
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository instance
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group and adds the owner as its first member
func (r *groupRepository) Create(group *models.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    models.GroupRoleOwner,
		}
		return tx.Create(&member).Error
	})
}

// GetByID retrieves a group with its members by ID
func (r *groupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.Preload("Owner").Preload("Members").Preload("Members.User").First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByOwnerID retrieves all groups owned by a user
func (r *groupRepository) GetByOwnerID(ownerID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").Find(&groups).Error
	return groups, err
}

// GetByMemberID retrieves all groups the user is a member of
func (r *groupRepository) GetByMemberID(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at DESC").Find(&groups).Error
	return groups, err
}

// Update updates an existing group in the database
func (r *groupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

// Delete removes a group and its memberships
func (r *groupRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
}

// AddMember adds a user to a group. Joining twice is a no-op.
func (r *groupRepository) AddMember(groupID, userID uint, role string) error {
	exists, err := r.IsMember(groupID, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if role == "" {
		role = models.GroupRoleMember
	}
	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.Create(&member).Error
}

// RemoveMember removes a user from a group
func (r *groupRepository) RemoveMember(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

// IsMember reports whether the user belongs to the group
func (r *groupRepository) IsMember(groupID, userID uint) (bool, error) {
	var member models.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMembers retrieves the members of a group with their users preloaded
func (r *groupRepository) GetMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.Preload("User").Where("group_id = ?", groupID).
		Order("joined_at ASC").Find(&members).Error
	return members, err
}

// CountMembers returns the number of members in a group
func (r *groupRepository) CountMembers(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}
