package model

import "time"

type OrderItem struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           string    `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID        string    `gorm:"type:uuid;not null;index" json:"menu_item_id"`
	NameSnapshot      string    `gorm:"type:varchar(255);not null" json:"name_snapshot"`
	UnitPriceSnapshot int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
