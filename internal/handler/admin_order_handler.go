package handler

import (
	"context"
	"net/http"

	"tableorder/internal/repository"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderService interface {
	List(ctx context.Context, f repository.AdminOrderListFilter) (usecase.AdminOrderListOutput, error)
	UpdateStatus(ctx context.Context, actorStaffID string, restaurantID string, orderID string, in usecase.AdminUpdateOrderStatusInput) (usecase.OrderOutput, error)
}

type AdminOrderHandler struct {
	uc AdminOrderService
}

func NewAdminOrderHandler(uc AdminOrderService) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// g は /admin/restaurants/:restaurantId
func (h *AdminOrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.list)
	g.PUT("/orders/:orderId/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	fromPtr, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	toPtr, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		RestaurantID: c.Param("restaurantId"),
		Page:         page,
		Limit:        limit,
		Status:       c.QueryParam("status"),
		TableID:      c.QueryParam("table_id"),
		From:         fromPtr,
		To:           toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	// 操作したスタッフID（監査ログ用）
	staffID, ok := getStaffIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		staffID,
		c.Param("restaurantId"),
		c.Param("orderId"),
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
