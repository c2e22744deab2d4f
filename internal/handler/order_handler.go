package handler

import (
	"context"
	"net/http"

	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type OrderService interface {
	PlaceOrder(ctx context.Context, restaurantID string, tableID string, in usecase.PlaceOrderInput) (usecase.OrderOutput, error)
	GetOrder(ctx context.Context, restaurantID string, orderID string) (usecase.OrderOutput, error)
	ListTableOrders(ctx context.Context, restaurantID string, tableID string) ([]usecase.OrderOutput, error)
}

// 注文送信（キッチンへ）
type OrderHandler struct {
	uc OrderService
}

// DI
func NewOrderHandler(uc OrderService) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/restaurants/:restaurantId/tables/:tableId/orders", h.place)
	e.GET("/restaurants/:restaurantId/tables/:tableId/orders", h.listTable)
	e.GET("/restaurants/:restaurantId/orders/:orderId", h.get)
}

// 同じキーの再送は最初の注文を返す
func (h *OrderHandler) place(c echo.Context) error {
	out, err := h.uc.PlaceOrder(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"), usecase.PlaceOrderInput{
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listTable(c echo.Context) error {
	out, err := h.uc.ListTableOrders(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *OrderHandler) get(c echo.Context) error {
	out, err := h.uc.GetOrder(c.Request().Context(), c.Param("restaurantId"), c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
