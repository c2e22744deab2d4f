package model

import "time"

type PaymentStatus string

const (
	PaymentStatusOpen      PaymentStatus = "OPEN"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
)

// 決済時点のカート明細。支払い完了時はこれから注文を作る。
type PaymentLine struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int64  `json:"quantity"`
}

// Stripe Checkout Session 1件分の記録。
type Payment struct {
	ID           string        `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string        `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	TableID      string        `gorm:"type:varchar(64);not null" json:"table_id"`
	SessionID    string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"session_id"`
	Amount       int64         `gorm:"not null" json:"amount"`
	Currency     string        `gorm:"type:varchar(10);not null" json:"currency"`
	Status       PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Lines        []PaymentLine `gorm:"type:text;serializer:json" json:"lines"`
	OrderID      *string       `gorm:"type:uuid" json:"order_id,omitempty"`
	ReceiptURL   string        `gorm:"type:text" json:"receipt_url"`
	CreatedAt    time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
