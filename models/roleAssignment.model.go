package models

import (
	"gorm.io/gorm"
)

// RoleAssignment links a user to a platform role ID. Flows target users
// through these role IDs.
type RoleAssignment struct {
	gorm.Model
	UserID    uint `gorm:"index;not null" json:"user_id"`
	RoleID    uint `gorm:"index;not null" json:"role_id"`
	IsDeleted bool `gorm:"default:false"`
}

// UserRoleIDs returns the distinct role IDs assigned to a user.
func UserRoleIDs(db *gorm.DB, userID uint) ([]uint, error) {
	var roleIDs []uint
	err := db.Model(&RoleAssignment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Distinct().
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, err
	}
	return roleIDs, nil
}
