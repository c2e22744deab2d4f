package repository

import (
	"context"

	"tableorder/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderCounterGormRepository struct {
	db *gorm.DB
}

func NewOrderCounterGormRepository(db *gorm.DB) *OrderCounterGormRepository {
	return &OrderCounterGormRepository{db: db}
}

// Next は採番行をロックして次の番号を返す。
// 呼び出し側のトランザクションがcommitするまで他の採番は待つ。
func (r *OrderCounterGormRepository) Next(ctx context.Context, restaurantID string) (int64, error) {
	db := r.db.WithContext(ctx)

	//無ければ作る（同時に作られても片方は無視）
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.OrderCounter{RestaurantID: restaurantID}).Error; err != nil {
		return 0, err
	}

	var c model.OrderCounter
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ?", restaurantID).
		First(&c).Error; err != nil {
		return 0, translate(err)
	}

	next := c.LastNumber + 1
	if err := db.Model(&model.OrderCounter{}).
		Where("restaurant_id = ?", restaurantID).
		Update("last_number", next).Error; err != nil {
		return 0, err
	}

	return next, nil
}
