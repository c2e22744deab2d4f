package handler

import (
	"context"
	"net/http"

	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartService interface {
	GetCart(ctx context.Context, restaurantID string, tableID string) (usecase.CartResponse, error)
	AddItem(ctx context.Context, restaurantID string, tableID string, in usecase.AddCartItemInput) (usecase.CartResponse, error)
	UpdateQuantity(ctx context.Context, restaurantID string, tableID string, lineID string, qty int64) (usecase.CartResponse, error)
	RemoveItem(ctx context.Context, restaurantID string, tableID string, lineID string) (usecase.CartResponse, error)
	Clear(ctx context.Context, restaurantID string, tableID string) (usecase.CartResponse, error)
}

// テーブルカートのHTTP
type CartHandler struct {
	uc CartService
}

// DI
func NewCartHandler(uc CartService) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int64  `json:"quantity" validate:"gte=0,lte=99"`
}

type UpdateCartItemRequest struct {
	// nilと0を区別する（0は削除）
	Quantity *int64 `json:"quantity" validate:"required,gte=0,lte=99"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/restaurants/:restaurantId/tables/:tableId/cart")

	g.GET("", h.getCart)
	g.POST("", h.addItem)
	g.DELETE("", h.clear)
	g.PATCH("/items/:lineId", h.patchItem)
	g.DELETE("/items/:lineId", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"), usecase.AddCartItemInput{
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity is required"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"), c.Param("lineId"), *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	out, err := h.uc.RemoveItem(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"), c.Param("lineId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	out, err := h.uc.Clear(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
