package repository

import (
	"context"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"gorm.io/gorm"
)

type MenuItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

// IDで商品を取得
func (r *MenuItemGormRepository) FindByID(ctx context.Context, id string) (model.MenuItem, error) {
	var item model.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return model.MenuItem{}, translate(err)
	}
	return item, nil
}

func (r *MenuItemGormRepository) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	tx := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("menu_id = ?", q.MenuID)

	if q.CategoryID != "" {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}
	// 客向けは公開中のみ
	if q.VisibleOnly {
		tx = tx.Where("is_visible = ?", true)
	}

	var items []model.MenuItem
	if err := tx.Order("created_at asc").Order("name asc").Find(&items).Error; err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) Create(ctx context.Context, item *model.MenuItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

// 商品の更新（画像URLは別）
func (r *MenuItemGormRepository) Update(ctx context.Context, item model.MenuItem) error {
	res := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"category_id": item.CategoryID,
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
		"is_visible":  item.IsVisible,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) SetImageURL(ctx context.Context, id string, url string) error {
	res := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("id = ?", id).Update("image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}
