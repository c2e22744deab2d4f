package repository

import (
	"context"

	"tableorder/internal/domain/model"

	"gorm.io/gorm"
)

type FeedbackGormRepository struct {
	db *gorm.DB
}

func NewFeedbackGormRepository(db *gorm.DB) *FeedbackGormRepository {
	return &FeedbackGormRepository{db: db}
}

func (r *FeedbackGormRepository) Create(ctx context.Context, f *model.Feedback) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

// 新しい順
func (r *FeedbackGormRepository) ListByRestaurant(ctx context.Context, restaurantID string, page int, limit int) ([]model.Feedback, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Feedback{}).Where("restaurant_id = ?", restaurantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Feedback{}, 0, err
	}

	var items []model.Feedback
	offset := (page - 1) * limit
	if err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Feedback{}, 0, err
	}
	return items, total, nil
}
