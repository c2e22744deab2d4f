package repository

import (
	"context"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return translate(r.db.WithContext(ctx).Create(&log).Error)
}

func (r *AuditLogGormRepository) ListByRestaurant(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.AuditLog{}).Where("restaurant_id = ?", q.RestaurantID)
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.ResourceType != "" {
		db = db.Where("resource_type = ?", q.ResourceType)
	}
	if q.ResourceID != "" {
		db = db.Where("resource_id = ?", q.ResourceID)
	}
	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at <= ?", *q.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}

	logs := []model.AuditLog{}
	offset := (q.Page - 1) * q.Limit
	if err := db.Order("created_at DESC").Order("id").Limit(q.Limit).Offset(offset).Find(&logs).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}
	return logs, total, nil
}
