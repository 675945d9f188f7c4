package models

import (
	"errors"

	"gorm.io/gorm"
)

// Onboarding capabilities.
const (
	PermBypass      = "onboarding:bypass"
	PermViewReports = "onboarding:viewreports"
	PermManageFlows = "onboarding:manageflows"
)

type Permission struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	User       User   `gorm:"foreignKey:UserID"`
	Role       string
	Permission string `gorm:"type:varchar(255)"` // e.g. "onboarding:manageflows"
	IsDeleted  bool   `gorm:"default:false"`
}

// HasPermission checks whether the user holds the given capability.
func HasPermission(db *gorm.DB, userID uint, permission string) (bool, error) {
	var p Permission
	err := db.Where("user_id = ? AND permission = ? AND is_deleted = ?", userID, permission, false).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SeedPermissions assigns the default capability set for a role.
func SeedPermissions(db *gorm.DB, role string, userID uint) error {
	var perms []string
	switch role {
	case "ADMIN":
		perms = []string{PermViewReports, PermManageFlows}
	default:
		return nil
	}

	for _, perm := range perms {
		var existing Permission
		err := db.Where("user_id = ? AND permission = ? AND is_deleted = ?", userID, perm, false).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&Permission{UserID: userID, Role: role, Permission: perm}).Error; err != nil {
			return err
		}
	}
	return nil
}
