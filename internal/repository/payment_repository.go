package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindBySessionID(ctx context.Context, sessionID string) (model.Payment, error)
	//完了処理の二重実行を防ぐため行ロックして取得
	FindBySessionIDForUpdate(ctx context.Context, sessionID string) (model.Payment, error)
	MarkCompleted(ctx context.Context, sessionID string, orderID string, receiptURL string) error
	UpdateStatus(ctx context.Context, sessionID string, status model.PaymentStatus) error
	//テーブルのOPENな決済をEXPIREDにして、そのセッションIDを返す
	ExpireOpenByTable(ctx context.Context, restaurantID string, tableID string) ([]string, error)
}
