package repository

import (
	"context"
	"time"

	"tableorder/internal/domain/model"
)

type AdminOrderListFilter struct {
	RestaurantID string
	Page         int
	Limit        int
	Status       string
	TableID      string
	From         *time.Time
	To           *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	//ステータス更新用。トランザクション内で行ロック
	FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error)
	ListByTable(ctx context.Context, restaurantID string, tableID string, limit int) ([]model.Order, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, restaurantID string, key string) (model.Order, bool, error)
	//スタッフ用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

// 注文番号の採番。トランザクション内で呼ぶ。
type OrderCounterRepository interface {
	Next(ctx context.Context, restaurantID string) (int64, error)
}
