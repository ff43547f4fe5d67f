package dbmodels

import (
	"strings"
	"time"

	"org-portal-backend/models"

	"gorm.io/gorm"
)

type User struct {
	BaseModel
	Email     string          `gorm:"type:varchar(255);uniqueIndex"`
	Password  string          `gorm:"type:varchar(128)"`
	FullName  string          `gorm:"type:varchar(255)"`
	Phone     string          `gorm:"type:varchar(20)"`
	Role      models.UserRole `gorm:"type:varchar(50);default:employee"`
	RoleID    *string         `gorm:"type:varchar(36)"`
	IsActive  bool            `gorm:"default:true"`
	LastLogin *time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (r User) GetFullName() string {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		return r.Email
	}
	return name
}

// Role is a named permission set assignable through assign_user_role
type Role struct {
	BaseModel
	Name        string          `gorm:"type:varchar(100);uniqueIndex"`
	Code        models.UserRole `gorm:"type:varchar(50)"`
	Description string
}
