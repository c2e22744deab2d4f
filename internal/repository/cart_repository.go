package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

// テーブル単位のカート明細（cartsテーブル）
type CartRepository interface {
	ListByTable(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error)
	//トランザクション内で行ロックして取得
	ListByTableForUpdate(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error)
	//同じ(restaurant, table, menu_item)が既にあれば数量を加算
	InsertOrMerge(ctx context.Context, item *model.CartItem) error
	UpdateLine(ctx context.Context, item model.CartItem) error
	DeleteByID(ctx context.Context, restaurantID string, tableID string, lineID string) error
	ClearTable(ctx context.Context, restaurantID string, tableID string) (int64, error)
}
