package repository

import (
	"context"

	"tableorder/internal/domain/model"

	"gorm.io/gorm"
)

type RestaurantGormRepository struct {
	db *gorm.DB
}

// DI
func NewRestaurantGormRepository(db *gorm.DB) *RestaurantGormRepository {
	return &RestaurantGormRepository{db: db}
}

func (r *RestaurantGormRepository) FindByID(ctx context.Context, id string) (model.Restaurant, error) {
	var rest model.Restaurant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rest).Error
	if err != nil {
		return model.Restaurant{}, translate(err)
	}
	return rest, nil
}

func (r *RestaurantGormRepository) Create(ctx context.Context, rest *model.Restaurant) error {
	return translate(r.db.WithContext(ctx).Create(rest).Error)
}
