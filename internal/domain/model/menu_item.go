package model

import "time"

// メニューの商品。priceはセント単位。
type MenuItem struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	MenuID      string    `gorm:"type:uuid;not null;index" json:"menu_id"`
	CategoryID  string    `gorm:"type:uuid;not null;index" json:"category_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int64     `gorm:"not null" json:"price"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	IsVisible   bool      `gorm:"not null" json:"is_visible"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
