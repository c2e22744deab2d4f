package repository

import (
	"context"
	"time"

	"tableorder/internal/domain/model"
)

// 店舗ごとの監査ログ検索。空の項目は絞り込まない。
type AuditLogQuery struct {
	RestaurantID string
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         int
	Limit        int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//新しい順。件数も返す
	ListByRestaurant(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, int64, error)
}
