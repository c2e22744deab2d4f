package repository

import (
	"context"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"gorm.io/gorm"
)

type MenuGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuGormRepository(db *gorm.DB) *MenuGormRepository {
	return &MenuGormRepository{db: db}
}

func (r *MenuGormRepository) FindByID(ctx context.Context, id string) (model.Menu, error) {
	var m model.Menu
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return model.Menu{}, translate(err)
	}
	return m, nil
}

// 有効なメニューが複数あっても新しいものを1つ返す
func (r *MenuGormRepository) FindEnabledByRestaurant(ctx context.Context, restaurantID string) (model.Menu, error) {
	var m model.Menu
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND is_enabled = ?", restaurantID, true).
		Order("updated_at desc").
		First(&m).Error
	if err != nil {
		return model.Menu{}, translate(err)
	}
	return m, nil
}

func (r *MenuGormRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error) {
	var menus []model.Menu
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at asc").
		Find(&menus).Error; err != nil {
		return []model.Menu{}, err
	}
	return menus, nil
}

func (r *MenuGormRepository) Create(ctx context.Context, m *model.Menu) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MenuGormRepository) Rename(ctx context.Context, id string, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Menu{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuGormRepository) Enable(ctx context.Context, restaurantID string, menuID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//他のメニューを無効化
		if err := tx.Model(&model.Menu{}).
			Where("restaurant_id = ? AND id <> ?", restaurantID, menuID).
			Update("is_enabled", false).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Menu{}).
			Where("id = ? AND restaurant_id = ?", menuID, restaurantID).
			Update("is_enabled", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (r *MenuGormRepository) Disable(ctx context.Context, menuID string) error {
	res := r.db.WithContext(ctx).Model(&model.Menu{}).Where("id = ?", menuID).Update("is_enabled", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type MenuCategoryGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuCategoryGormRepository(db *gorm.DB) *MenuCategoryGormRepository {
	return &MenuCategoryGormRepository{db: db}
}

func (r *MenuCategoryGormRepository) FindByID(ctx context.Context, id string) (model.MenuCategory, error) {
	var c model.MenuCategory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return model.MenuCategory{}, translate(err)
	}
	return c, nil
}

// 表示順（position→name）
func (r *MenuCategoryGormRepository) ListByMenu(ctx context.Context, menuID string) ([]model.MenuCategory, error) {
	var cats []model.MenuCategory
	if err := r.db.WithContext(ctx).
		Where("menu_id = ?", menuID).
		Order("position asc").Order("name asc").
		Find(&cats).Error; err != nil {
		return []model.MenuCategory{}, err
	}
	return cats, nil
}

func (r *MenuCategoryGormRepository) Create(ctx context.Context, c *model.MenuCategory) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *MenuCategoryGormRepository) Update(ctx context.Context, id string, name string, position int) error {
	res := r.db.WithContext(ctx).Model(&model.MenuCategory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":     name,
		"position": position,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuCategoryGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MenuCategory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
