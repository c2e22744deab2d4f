package model

import "time"

type Role string

const (
	RoleOwner Role = "OWNER"
	RoleStaff Role = "STAFF"
)

// 店舗スタッフ。管理APIのログインに使う。
type StaffUser struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string     `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'STAFF'" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
