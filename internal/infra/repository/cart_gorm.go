package repository

import (
	"context"
	"errors"
	"time"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// テーブルのカート明細を一覧取得
func (r *CartGormRepository) ListByTable(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND table_id = ?", restaurantID, tableID).
		Order("created_at asc").Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 行ロック付き（Tx内で使う）
func (r *CartGormRepository) ListByTableForUpdate(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND table_id = ?", restaurantID, tableID).
		Order("created_at asc").Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一商品は数量加算（同時追加でも1行にまとまる）
func (r *CartGormRepository) InsertOrMerge(ctx context.Context, item *model.CartItem) error {
	if item.Quantity <= 0 {
		return errors.New("invalid quantity")
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "restaurant_id"}, {Name: "table_id"}, {Name: "menu_item_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":            gorm.Expr("carts.quantity + excluded.quantity"),
				"name":                gorm.Expr("excluded.name"),
				"unit_price_snapshot": gorm.Expr("excluded.unit_price_snapshot"),
				"updated_at":          gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(item).Error
}

// 明細の数量・スナップショットを更新
func (r *CartGormRepository) UpdateLine(ctx context.Context, item model.CartItem) error {
	if item.Quantity <= 0 {
		return errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity":            item.Quantity,
			"name":                item.Name,
			"unit_price_snapshot": item.UnitPriceSnapshot,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除（他テーブルの行は消さない）
func (r *CartGormRepository) DeleteByID(ctx context.Context, restaurantID string, tableID string, lineID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ? AND table_id = ?", lineID, restaurantID, tableID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// テーブルの明細を全削除
func (r *CartGormRepository) ClearTable(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND table_id = ?", restaurantID, tableID).
		Delete(&model.CartItem{})

	return res.RowsAffected, res.Error
}
