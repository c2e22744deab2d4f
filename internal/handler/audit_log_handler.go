package handler

import (
	"context"
	"net/http"

	"tableorder/internal/domain/model"
	"tableorder/internal/middleware"
	"tableorder/internal/repository"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogService interface {
	List(ctx context.Context, q repository.AuditLogQuery) (usecase.AuditLogListOutput, error)
}

type AuditLogHandler struct {
	uc AuditLogService
}

func NewAuditLogHandler(uc AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

// g は /admin/restaurants/:restaurantId。オーナーのみ
func (h *AuditLogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/audit-logs", h.list, middleware.OwnerRoleGuard())
}

func (h *AuditLogHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c, 20)
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

	out, err := h.uc.List(c.Request().Context(), repository.AuditLogQuery{
		RestaurantID: c.Param("restaurantId"),
		Action:       model.AuditAction(c.QueryParam("action")),
		ResourceType: model.AuditResourceType(c.QueryParam("resource_type")),
		ResourceID:   c.QueryParam("resource_id"),
		From:         fromPtr,
		To:           toPtr,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
