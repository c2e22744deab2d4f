package handler

import (
	"context"
	"net/http"
	"strconv"

	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type MenuService interface {
	GetRestaurant(ctx context.Context, restaurantID string) (usecase.RestaurantOutput, error)
	GetMenu(ctx context.Context, restaurantID string) (usecase.MenuOutput, error)
	TableLandingURL(ctx context.Context, restaurantID string, tableID string) string
	TableQRCode(ctx context.Context, restaurantID string, tableID string, size int) ([]byte, error)
}

// 客向けの店舗・メニュー・テーブル入口
type MenuHandler struct {
	uc MenuService
}

// DI
func NewMenuHandler(uc MenuService) *MenuHandler {
	return &MenuHandler{uc: uc}
}

func (h *MenuHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/restaurants/:restaurantId", h.restaurant)
	e.GET("/restaurants/:restaurantId/menu", h.menu)
	e.GET("/restaurants/:restaurantId/tables/:tableId", h.tableLanding)
	e.GET("/restaurants/:restaurantId/tables/:tableId/qr.png", h.tableQR)
}

func (h *MenuHandler) restaurant(c echo.Context) error {
	out, err := h.uc.GetRestaurant(c.Request().Context(), c.Param("restaurantId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) menu(c echo.Context) error {
	out, err := h.uc.GetMenu(c.Request().Context(), c.Param("restaurantId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// QRを読んだ客をフロントのテーブル画面へ飛ばす
func (h *MenuHandler) tableLanding(c echo.Context) error {
	url := h.uc.TableLandingURL(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"))
	return c.Redirect(http.StatusFound, url)
}

func (h *MenuHandler) tableQR(c echo.Context) error {
	size := 0
	if v := c.QueryParam("size"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid size"})
		}
		size = s
	}

	png, err := h.uc.TableQRCode(c.Request().Context(), c.Param("restaurantId"), c.Param("tableId"), size)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/png", png)
}
