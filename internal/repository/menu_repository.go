package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

type MenuRepository interface {
	FindByID(ctx context.Context, id string) (model.Menu, error)
	//公開中(is_enabled)のメニュー。無ければErrNotFound
	FindEnabledByRestaurant(ctx context.Context, restaurantID string) (model.Menu, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error)
	Create(ctx context.Context, m *model.Menu) error
	Rename(ctx context.Context, id string, name string) error
	//指定メニューだけ有効にし、同じレストランの他メニューは無効にする
	Enable(ctx context.Context, restaurantID string, menuID string) error
	Disable(ctx context.Context, menuID string) error
}

type MenuCategoryRepository interface {
	FindByID(ctx context.Context, id string) (model.MenuCategory, error)
	ListByMenu(ctx context.Context, menuID string) ([]model.MenuCategory, error)
	Create(ctx context.Context, c *model.MenuCategory) error
	Update(ctx context.Context, id string, name string, position int) error
	Delete(ctx context.Context, id string) error
}

type MenuItemListQuery struct {
	MenuID      string
	CategoryID  string
	VisibleOnly bool
}

type MenuItemRepository interface {
	FindByID(ctx context.Context, id string) (model.MenuItem, error)
	List(ctx context.Context, q MenuItemListQuery) ([]model.MenuItem, error)
	Create(ctx context.Context, item *model.MenuItem) error
	Update(ctx context.Context, item model.MenuItem) error
	SetImageURL(ctx context.Context, id string, url string) error
	//カテゴリに商品が残っているか
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}
