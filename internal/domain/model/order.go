package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusServed    OrderStatus = "SERVED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type Order struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string      `gorm:"type:uuid;not null;uniqueIndex:ux_orders_number,priority:1;uniqueIndex:ux_orders_idem,priority:1" json:"restaurant_id"`
	TableID      string      `gorm:"type:varchar(64);not null;index" json:"table_id"`
	OrderNumber  int64       `gorm:"not null;uniqueIndex:ux_orders_number,priority:2" json:"order_number"`
	Status       OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal     int64       `gorm:"not null" json:"subtotal"`
	Tax          int64       `gorm:"not null" json:"tax"`
	TotalPrice   int64       `gorm:"not null" json:"total_price"`
	// 二重送信対策。NULLは重複可。
	IdempotencyKey   *string   `gorm:"type:varchar(255);uniqueIndex:ux_orders_idem,priority:2" json:"-"`
	PaymentSessionID *string   `gorm:"type:varchar(255)" json:"payment_session_id,omitempty"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文ステータスの遷移表。PAID/CANCELEDは終端。
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPreparing: {OrderStatusServed, OrderStatusCanceled},
	OrderStatusServed:    {OrderStatusPaid},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusServed, OrderStatusPaid, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderStatusTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}
