package model

import "time"

// テーブル単位のカート明細（cartsテーブル）。
// 1テーブル1商品1行。名前と価格は追加時点のスナップショット。
type CartItem struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID      string    `gorm:"type:uuid;not null;uniqueIndex:ux_carts_line,priority:1" json:"restaurant_id"`
	TableID           string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_carts_line,priority:2" json:"table_id"`
	MenuItemID        string    `gorm:"type:uuid;not null;uniqueIndex:ux_carts_line,priority:3" json:"menu_item_id"`
	Name              string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string { return "carts" }
