package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"
)

const (
	qrDefaultSize = 256
	qrMinSize     = 64
	qrMaxSize     = 1024
)

// 客向けのメニュー閲覧とテーブル入口
type MenuUsecase struct {
	restaurants repo.RestaurantRepository
	menus       repo.MenuRepository
	categories  repo.MenuCategoryRepository
	menuItems   repo.MenuItemRepository
	qr          QREncoder
	feURL       string
	baseURL     string
}

// DI
func NewMenuUsecase(
	restaurants repo.RestaurantRepository,
	menus repo.MenuRepository,
	categories repo.MenuCategoryRepository,
	menuItems repo.MenuItemRepository,
	qr QREncoder,
	feURL string,
	publicBaseURL string,
) *MenuUsecase {
	return &MenuUsecase{
		restaurants: restaurants,
		menus:       menus,
		categories:  categories,
		menuItems:   menuItems,
		qr:          qr,
		feURL:       strings.TrimRight(feURL, "/"),
		baseURL:     strings.TrimRight(publicBaseURL, "/"),
	}
}

type RestaurantOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	MenuID string `json:"menu_id"`
}

type MenuCategoryOutput struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Position int              `json:"position"`
	Items    []model.MenuItem `json:"items"`
}

type MenuOutput struct {
	ID           string               `json:"id"`
	RestaurantID string               `json:"restaurant_id"`
	Name         string               `json:"name"`
	Categories   []MenuCategoryOutput `json:"categories"`
}

func (u *MenuUsecase) GetRestaurant(ctx context.Context, restaurantID string) (RestaurantOutput, error) {
	rest, err := u.findRestaurant(ctx, restaurantID)
	if err != nil {
		return RestaurantOutput{}, err
	}

	out := RestaurantOutput{ID: rest.ID, Name: rest.Name}
	menu, err := u.menus.FindEnabledByRestaurant(ctx, restaurantID)
	switch {
	case err == nil:
		out.MenuID = menu.ID
	case errors.Is(err, repo.ErrNotFound):
		// 公開メニュー無し
	default:
		return RestaurantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

// GetMenu は公開中メニューをカテゴリ順に返す。非公開の商品は含めない。
func (u *MenuUsecase) GetMenu(ctx context.Context, restaurantID string) (MenuOutput, error) {
	if !validID(restaurantID) {
		return MenuOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	menu, err := u.menus.FindEnabledByRestaurant(ctx, restaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return MenuOutput{}, NewHTTPError(http.StatusNotFound, "no active menu")
	}
	if err != nil {
		return MenuOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cats, err := u.categories.ListByMenu(ctx, menu.ID)
	if err != nil {
		return MenuOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	items, err := u.menuItems.List(ctx, repo.MenuItemListQuery{MenuID: menu.ID, VisibleOnly: true})
	if err != nil {
		return MenuOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byCategory := make(map[string][]model.MenuItem, len(cats))
	for _, it := range items {
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}

	out := MenuOutput{
		ID:           menu.ID,
		RestaurantID: menu.RestaurantID,
		Name:         menu.Name,
		Categories:   make([]MenuCategoryOutput, 0, len(cats)),
	}
	for _, c := range cats {
		catItems := byCategory[c.ID]
		if catItems == nil {
			catItems = []model.MenuItem{}
		}
		out.Categories = append(out.Categories, MenuCategoryOutput{
			ID:       c.ID,
			Name:     c.Name,
			Position: c.Position,
			Items:    catItems,
		})
	}
	return out, nil
}

// TableLandingURL はQRから来た客のリダイレクト先。
// 不正なテーブルや存在しない店舗はフロントのトップへ。
func (u *MenuUsecase) TableLandingURL(ctx context.Context, restaurantID string, tableID string) string {
	if validateTable(restaurantID, tableID) != nil {
		return u.feURL + "/"
	}
	if _, err := u.restaurants.FindByID(ctx, restaurantID); err != nil {
		return u.feURL + "/"
	}
	return fmt.Sprintf("%s/restaurants/%s/tables/%s", u.feURL, restaurantID, tableID)
}

// TableQRCode はテーブル入口URLのQRコード(PNG)
func (u *MenuUsecase) TableQRCode(ctx context.Context, restaurantID string, tableID string, size int) ([]byte, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return nil, err
	}
	if size == 0 {
		size = qrDefaultSize
	}
	if size < qrMinSize || size > qrMaxSize {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid size")
	}
	if _, err := u.findRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	content := fmt.Sprintf("%s/restaurants/%s/tables/%s", u.baseURL, restaurantID, tableID)
	png, err := u.qr.PNG(content, size)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "qr encode error")
	}
	return png, nil
}

func (u *MenuUsecase) findRestaurant(ctx context.Context, restaurantID string) (model.Restaurant, error) {
	if !validID(restaurantID) {
		return model.Restaurant{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	rest, err := u.restaurants.FindByID(ctx, restaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Restaurant{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return model.Restaurant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rest, nil
}
