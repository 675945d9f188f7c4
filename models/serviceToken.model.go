package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceToken authenticates external automation (reporting syncs, reset
// hooks) against the external API routes.
type ServiceToken struct {
	gorm.Model
	Name       string     `gorm:"not null" json:"name"`
	Token      string     `gorm:"uniqueIndex;not null" json:"token"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	IsDeleted  bool       `gorm:"default:false"`
}

// NewServiceToken creates and stores a token for the given consumer name.
func NewServiceToken(db *gorm.DB, name string) (*ServiceToken, error) {
	token := ServiceToken{
		Name:  name,
		Token: uuid.NewString(),
	}
	if err := db.Create(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ServiceTokenByValue fetches an active token, stamping its last use.
func ServiceTokenByValue(db *gorm.DB, value string) (*ServiceToken, error) {
	var token ServiceToken
	if err := db.Where("token = ? AND is_active = ? AND is_deleted = ?", value, true, false).First(&token).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	token.LastUsedAt = &now
	db.Model(&token).Update("last_used_at", now)
	return &token, nil
}
