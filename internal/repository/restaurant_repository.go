package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

type RestaurantRepository interface {
	FindByID(ctx context.Context, id string) (model.Restaurant, error)
	Create(ctx context.Context, r *model.Restaurant) error
}
