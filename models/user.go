package models

import (
	"strings"
	"time"

	"dormitory/constants"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Name      string    `gorm:"default:New Student" json:"name"`
	Email     string    `gorm:"unique" json:"email"`
	Role      int       `gorm:"default:0" json:"role"`
	Gender    string    `gorm:"size:16" json:"gender"`
}

func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleAdmin || u.Role == constants.RoleSuperAdmin
}

// NormalizeGender lower-cases and trims a gender value so comparisons ignore formatting.
func NormalizeGender(gender string) string {
	return strings.ToLower(strings.TrimSpace(gender))
}
