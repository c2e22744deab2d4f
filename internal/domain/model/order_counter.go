package model

// レストランごとの注文番号の採番行。
// 注文作成のトランザクション内で行ロックして+1する。
type OrderCounter struct {
	RestaurantID string `gorm:"type:uuid;primaryKey"`
	LastNumber   int64  `gorm:"not null"`
}
