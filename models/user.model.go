package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage    string    `gorm:"default:''"`
	Name            string    `gorm:"default:''"`
	Email           string    `gorm:"unique;not null"`
	Role            string    `gorm:"default:'USER'"` // USER, ADMIN
	Password        string    `gorm:"not null"`
	IsEmailVerified bool      `gorm:"default:false"`
	LastLogin       time.Time `gorm:"default:NULL"`
	IsDeleted       bool      `gorm:"default:false"`
}

// IsAdmin reports whether the user holds the site admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "ADMIN"
}

// UserByID fetches an active user by ID.
func UserByID(db *gorm.DB, userID uint) (*User, error) {
	var user User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByEmail fetches an active user by email.
func UserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
