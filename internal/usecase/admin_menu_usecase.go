package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"github.com/google/uuid"
)

// 商品画像は5MiBまで
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// スタッフ用のメニュー管理
type AdminMenuUsecase struct {
	tx         repo.TransactionManager
	menus      repo.MenuRepository
	categories repo.MenuCategoryRepository
	menuItems  repo.MenuItemRepository
	images     ImageStore
}

// DI
func NewAdminMenuUsecase(
	tx repo.TransactionManager,
	menus repo.MenuRepository,
	categories repo.MenuCategoryRepository,
	menuItems repo.MenuItemRepository,
	images ImageStore,
) *AdminMenuUsecase {
	return &AdminMenuUsecase{
		tx:         tx,
		menus:      menus,
		categories: categories,
		menuItems:  menuItems,
		images:     images,
	}
}

type AdminMenuInput struct {
	Name      *string
	IsEnabled *bool
}

type AdminCategoryInput struct {
	MenuID   string
	Name     string
	Position int
}

type AdminMenuItemInput struct {
	MenuID      string
	CategoryID  string
	Name        string
	Description string
	Price       int64
	IsVisible   bool
}

type UploadImageInput struct {
	Data []byte
}

func (u *AdminMenuUsecase) ListMenus(ctx context.Context, restaurantID string) ([]model.Menu, error) {
	menus, err := u.menus.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return []model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return menus, nil
}

func (u *AdminMenuUsecase) CreateMenu(ctx context.Context, restaurantID string, in AdminMenuInput) (model.Menu, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return model.Menu{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	m := model.Menu{RestaurantID: restaurantID, Name: strings.TrimSpace(*in.Name)}
	if err := u.menus.Create(ctx, &m); err != nil {
		return model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.IsEnabled != nil && *in.IsEnabled {
		if err := u.menus.Enable(ctx, restaurantID, m.ID); err != nil {
			return model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		m.IsEnabled = true
	}
	return m, nil
}

// UpdateMenu は名前変更と公開切替。公開にすると他のメニューは非公開になる。
func (u *AdminMenuUsecase) UpdateMenu(ctx context.Context, restaurantID string, menuID string, in AdminMenuInput) (model.Menu, error) {
	m, err := u.ownedMenu(ctx, restaurantID, menuID)
	if err != nil {
		return model.Menu{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.Menu{}, NewHTTPError(http.StatusBadRequest, "name required")
		}
		if err := u.menus.Rename(ctx, menuID, name); err != nil {
			return model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		m.Name = name
	}

	if in.IsEnabled != nil && *in.IsEnabled != m.IsEnabled {
		if *in.IsEnabled {
			err = u.menus.Enable(ctx, restaurantID, menuID)
		} else {
			err = u.menus.Disable(ctx, menuID)
		}
		if err != nil {
			return model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		m.IsEnabled = *in.IsEnabled
	}
	return m, nil
}

func (u *AdminMenuUsecase) ListCategories(ctx context.Context, restaurantID string, menuID string) ([]model.MenuCategory, error) {
	if _, err := u.ownedMenu(ctx, restaurantID, menuID); err != nil {
		return []model.MenuCategory{}, err
	}
	cats, err := u.categories.ListByMenu(ctx, menuID)
	if err != nil {
		return []model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}

func (u *AdminMenuUsecase) CreateCategory(ctx context.Context, restaurantID string, in AdminCategoryInput) (model.MenuCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.MenuCategory{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Position < 0 {
		return model.MenuCategory{}, NewHTTPError(http.StatusBadRequest, "position must be >= 0")
	}
	if _, err := u.ownedMenu(ctx, restaurantID, in.MenuID); err != nil {
		return model.MenuCategory{}, err
	}

	c := model.MenuCategory{MenuID: in.MenuID, Name: strings.TrimSpace(in.Name), Position: in.Position}
	if err := u.categories.Create(ctx, &c); err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *AdminMenuUsecase) UpdateCategory(ctx context.Context, restaurantID string, categoryID string, in AdminCategoryInput) (model.MenuCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.MenuCategory{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Position < 0 {
		return model.MenuCategory{}, NewHTTPError(http.StatusBadRequest, "position must be >= 0")
	}
	c, err := u.ownedCategory(ctx, restaurantID, categoryID)
	if err != nil {
		return model.MenuCategory{}, err
	}

	if err := u.categories.Update(ctx, categoryID, strings.TrimSpace(in.Name), in.Position); err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Position = in.Position
	return c, nil
}

// 商品が残っているカテゴリは消せない
func (u *AdminMenuUsecase) DeleteCategory(ctx context.Context, restaurantID string, categoryID string) error {
	if _, err := u.ownedCategory(ctx, restaurantID, categoryID); err != nil {
		return err
	}

	n, err := u.menuItems.CountByCategory(ctx, categoryID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "category has items")
	}

	if err := u.categories.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 非公開の商品も含めて返す
func (u *AdminMenuUsecase) ListItems(ctx context.Context, restaurantID string, menuID string) ([]model.MenuItem, error) {
	if _, err := u.ownedMenu(ctx, restaurantID, menuID); err != nil {
		return []model.MenuItem{}, err
	}
	items, err := u.menuItems.List(ctx, repo.MenuItemListQuery{MenuID: menuID})
	if err != nil {
		return []model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *AdminMenuUsecase) CreateItem(ctx context.Context, restaurantID string, in AdminMenuItemInput) (model.MenuItem, error) {
	if err := validateMenuItemInput(in); err != nil {
		return model.MenuItem{}, err
	}
	if _, err := u.ownedMenu(ctx, restaurantID, in.MenuID); err != nil {
		return model.MenuItem{}, err
	}
	if err := u.categoryInMenu(ctx, in.CategoryID, in.MenuID); err != nil {
		return model.MenuItem{}, err
	}

	item := model.MenuItem{
		MenuID:      in.MenuID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		IsVisible:   in.IsVisible,
	}
	if err := u.menuItems.Create(ctx, &item); err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

// UpdateItem は商品更新。価格・公開状態が変わったら監査ログを残す。
func (u *AdminMenuUsecase) UpdateItem(ctx context.Context, actorStaffID string, restaurantID string, itemID string, in AdminMenuItemInput) (model.MenuItem, error) {
	if actorStaffID == "" {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateMenuItemInput(in); err != nil {
		return model.MenuItem{}, err
	}
	before, err := u.ownedItem(ctx, restaurantID, itemID)
	if err != nil {
		return model.MenuItem{}, err
	}
	if err := u.categoryInMenu(ctx, in.CategoryID, before.MenuID); err != nil {
		return model.MenuItem{}, err
	}

	after := before
	after.CategoryID = in.CategoryID
	after.Name = strings.TrimSpace(in.Name)
	after.Description = in.Description
	after.Price = in.Price
	after.IsVisible = in.IsVisible

	if err := u.saveItem(ctx, actorStaffID, restaurantID, before, after); err != nil {
		return model.MenuItem{}, err
	}
	return after, nil
}

// 公開/非公開の切替
func (u *AdminMenuUsecase) SetVisibility(ctx context.Context, actorStaffID string, restaurantID string, itemID string, visible bool) (model.MenuItem, error) {
	if actorStaffID == "" {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	before, err := u.ownedItem(ctx, restaurantID, itemID)
	if err != nil {
		return model.MenuItem{}, err
	}

	after := before
	after.IsVisible = visible
	if err := u.saveItem(ctx, actorStaffID, restaurantID, before, after); err != nil {
		return model.MenuItem{}, err
	}
	return after, nil
}

// UploadImage は画像をオブジェクトストレージに置き、image_urlを差し替える。
func (u *AdminMenuUsecase) UploadImage(ctx context.Context, restaurantID string, itemID string, in UploadImageInput) (model.MenuItem, error) {
	if len(in.Data) == 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "image required")
	}
	if len(in.Data) > MaxImageBytes {
		return model.MenuItem{}, NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}
	// 拡張子ではなく中身で判定
	contentType := http.DetectContentType(in.Data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return model.MenuItem{}, NewHTTPError(http.StatusUnsupportedMediaType, "unsupported image type")
	}

	item, err := u.ownedItem(ctx, restaurantID, itemID)
	if err != nil {
		return model.MenuItem{}, err
	}

	key := fmt.Sprintf("restaurants/%s/items/%s/%s.%s", restaurantID, itemID, uuid.NewString(), ext)
	url, err := u.images.Put(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentType)
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusBadGateway, "image upload failed")
	}

	if err := u.menuItems.SetImageURL(ctx, itemID, url); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	item.ImageURL = url
	return item, nil
}

func (u *AdminMenuUsecase) saveItem(ctx context.Context, actorStaffID string, restaurantID string, before model.MenuItem, after model.MenuItem) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.MenuItems().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if before.Price == after.Price && before.IsVisible == after.IsVisible {
			return nil
		}

		//監査ログ（価格・公開状態）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			RestaurantID: restaurantID,
			ActorStaffID: actorStaffID,
			Action:       model.AuditActionUpdateMenuItem,
			ResourceType: model.AuditResourceMenuItem,
			ResourceID:   after.ID,
			BeforeJSON:   fmt.Sprintf(`{"price":%d,"is_visible":%t}`, before.Price, before.IsVisible),
			AfterJSON:    fmt.Sprintf(`{"price":%d,"is_visible":%t}`, after.Price, after.IsVisible),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func validateMenuItemInput(in AdminMenuItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if !validID(in.CategoryID) {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	return nil
}

// 他店のメニューは「存在しない扱い」
func (u *AdminMenuUsecase) ownedMenu(ctx context.Context, restaurantID string, menuID string) (model.Menu, error) {
	if !validID(menuID) {
		return model.Menu{}, NewHTTPError(http.StatusBadRequest, "invalid menu_id")
	}
	m, err := u.menus.FindByID(ctx, menuID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Menu{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Menu{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if m.RestaurantID != restaurantID {
		return model.Menu{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return m, nil
}

func (u *AdminMenuUsecase) ownedCategory(ctx context.Context, restaurantID string, categoryID string) (model.MenuCategory, error) {
	if !validID(categoryID) {
		return model.MenuCategory{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.categories.FindByID(ctx, categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuCategory{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if _, err := u.ownedMenu(ctx, restaurantID, c.MenuID); err != nil {
		return model.MenuCategory{}, err
	}
	return c, nil
}

func (u *AdminMenuUsecase) ownedItem(ctx context.Context, restaurantID string, itemID string) (model.MenuItem, error) {
	if !validID(itemID) {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	item, err := u.menuItems.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if _, err := u.ownedMenu(ctx, restaurantID, item.MenuID); err != nil {
		return model.MenuItem{}, err
	}
	return item, nil
}

func (u *AdminMenuUsecase) categoryInMenu(ctx context.Context, categoryID string, menuID string) error {
	c, err := u.categories.FindByID(ctx, categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if c.MenuID != menuID {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	return nil
}
