package model

import "time"

// レストランのメニュー。IsEnabledのものだけ客に見せる。
type Menu struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string    `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	IsEnabled    bool      `gorm:"not null;default:false" json:"is_enabled"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type MenuCategory struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	MenuID    string    `gorm:"type:uuid;not null;index" json:"menu_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
