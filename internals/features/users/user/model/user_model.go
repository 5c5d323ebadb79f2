package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
)

// UserModel merepresentasikan tabel users
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName string    `gorm:"size:50;not null;uniqueIndex" json:"user_name"`
	Email    *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Password string    `gorm:"not null" json:"-"`
	GoogleID *string   `gorm:"size:255;uniqueIndex" json:"-"`
	Role     string    `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.SetDefaultValues()
	return nil
}

// SetDefaultValues: role kosong → student.
func (u *UserModel) SetDefaultValues() {
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = constants.RoleStudent
	}
}

func (u *UserModel) IsTeacher() bool { return u.Role == constants.RoleTeacher }
