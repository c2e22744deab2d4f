package handler

import (
	"context"
	"io"
	"net/http"

	"tableorder/internal/domain/model"
	"tableorder/internal/middleware"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type AdminMenuService interface {
	ListMenus(ctx context.Context, restaurantID string) ([]model.Menu, error)
	CreateMenu(ctx context.Context, restaurantID string, in usecase.AdminMenuInput) (model.Menu, error)
	UpdateMenu(ctx context.Context, restaurantID string, menuID string, in usecase.AdminMenuInput) (model.Menu, error)
	ListCategories(ctx context.Context, restaurantID string, menuID string) ([]model.MenuCategory, error)
	CreateCategory(ctx context.Context, restaurantID string, in usecase.AdminCategoryInput) (model.MenuCategory, error)
	UpdateCategory(ctx context.Context, restaurantID string, categoryID string, in usecase.AdminCategoryInput) (model.MenuCategory, error)
	DeleteCategory(ctx context.Context, restaurantID string, categoryID string) error
	ListItems(ctx context.Context, restaurantID string, menuID string) ([]model.MenuItem, error)
	CreateItem(ctx context.Context, restaurantID string, in usecase.AdminMenuItemInput) (model.MenuItem, error)
	UpdateItem(ctx context.Context, actorStaffID string, restaurantID string, itemID string, in usecase.AdminMenuItemInput) (model.MenuItem, error)
	SetVisibility(ctx context.Context, actorStaffID string, restaurantID string, itemID string, visible bool) (model.MenuItem, error)
	UploadImage(ctx context.Context, restaurantID string, itemID string, in usecase.UploadImageInput) (model.MenuItem, error)
}

// メニュー管理（スタッフ）
type AdminMenuHandler struct {
	uc AdminMenuService
}

func NewAdminMenuHandler(uc AdminMenuService) *AdminMenuHandler {
	return &AdminMenuHandler{uc: uc}
}

type MenuRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	IsEnabled *bool   `json:"is_enabled"`
}

type CategoryRequest struct {
	MenuID   string `json:"menu_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required,max=255"`
	Position int    `json:"position" validate:"gte=0"`
}

type MenuItemRequest struct {
	MenuID      string `json:"menu_id" validate:"required,uuid"`
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gte=0"`
	IsVisible   bool   `json:"is_visible"`
}

type VisibilityRequest struct {
	IsVisible *bool `json:"is_visible" validate:"required"`
}

// g は /admin/restaurants/:restaurantId（AuthJWT + RestaurantGuard 済み）
// 構成の変更はOWNERのみ。公開切替は現場スタッフも可。
func (h *AdminMenuHandler) RegisterRoutes(g *echo.Group) {
	owner := middleware.OwnerRoleGuard()

	g.GET("/menus", h.listMenus)
	g.POST("/menus", h.createMenu, owner)
	g.PATCH("/menus/:menuId", h.updateMenu, owner)

	g.GET("/menus/:menuId/categories", h.listCategories)
	g.POST("/categories", h.createCategory, owner)
	g.PUT("/categories/:categoryId", h.updateCategory, owner)
	g.DELETE("/categories/:categoryId", h.deleteCategory, owner)

	g.GET("/menus/:menuId/items", h.listItems)
	g.POST("/items", h.createItem, owner)
	g.PUT("/items/:itemId", h.updateItem, owner)
	g.PUT("/items/:itemId/visibility", h.setVisibility)
	g.POST("/items/:itemId/image", h.uploadImage, owner, echomw.BodyLimit("6M"))
}

func (h *AdminMenuHandler) listMenus(c echo.Context) error {
	out, err := h.uc.ListMenus(c.Request().Context(), c.Param("restaurantId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *AdminMenuHandler) createMenu(c echo.Context) error {
	var req MenuRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreateMenu(c.Request().Context(), c.Param("restaurantId"), usecase.AdminMenuInput{
		Name:      req.Name,
		IsEnabled: req.IsEnabled,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateMenu(c echo.Context) error {
	var req MenuRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateMenu(c.Request().Context(), c.Param("restaurantId"), c.Param("menuId"), usecase.AdminMenuInput{
		Name:      req.Name,
		IsEnabled: req.IsEnabled,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context(), c.Param("restaurantId"), c.Param("menuId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *AdminMenuHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreateCategory(c.Request().Context(), c.Param("restaurantId"), usecase.AdminCategoryInput{
		MenuID:   req.MenuID,
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateCategory(c.Request().Context(), c.Param("restaurantId"), c.Param("categoryId"), usecase.AdminCategoryInput{
		MenuID:   req.MenuID,
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) deleteCategory(c echo.Context) error {
	if err := h.uc.DeleteCategory(c.Request().Context(), c.Param("restaurantId"), c.Param("categoryId")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminMenuHandler) listItems(c echo.Context) error {
	out, err := h.uc.ListItems(c.Request().Context(), c.Param("restaurantId"), c.Param("menuId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *AdminMenuHandler) createItem(c echo.Context) error {
	var req MenuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreateItem(c.Request().Context(), c.Param("restaurantId"), toMenuItemInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateItem(c echo.Context) error {
	var req MenuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	// 監査ログ用
	staffID, ok := getStaffIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), staffID, c.Param("restaurantId"), c.Param("itemId"), toMenuItemInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) setVisibility(c echo.Context) error {
	var req VisibilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.IsVisible == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "is_visible is required"})
	}

	staffID, ok := getStaffIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.SetVisibility(c.Request().Context(), staffID, c.Param("restaurantId"), c.Param("itemId"), *req.IsVisible)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart の image フィールド
func (h *AdminMenuHandler) uploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image required"})
	}
	defer f.Close()

	// 上限+1まで読んでサイズ超過はusecaseに判定させる
	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid image"})
	}

	out, err := h.uc.UploadImage(c.Request().Context(), c.Param("restaurantId"), c.Param("itemId"), usecase.UploadImageInput{Data: data})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func toMenuItemInput(req MenuItemRequest) usecase.AdminMenuItemInput {
	return usecase.AdminMenuItemInput{
		MenuID:      req.MenuID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsVisible:   req.IsVisible,
	}
}
