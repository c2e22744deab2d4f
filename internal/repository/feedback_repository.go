package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *model.Feedback) error
	ListByRestaurant(ctx context.Context, restaurantID string, page int, limit int) ([]model.Feedback, int64, error)
}
