package handler

import (
	"context"
	"net/http"
	"strconv"

	"tableorder/internal/domain/model"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type FeedbackService interface {
	Submit(ctx context.Context, in usecase.SubmitFeedbackInput) (model.Feedback, error)
	List(ctx context.Context, restaurantID string, page int, limit int) (usecase.FeedbackListOutput, error)
}

type FeedbackHandler struct {
	uc FeedbackService
}

// DI
func NewFeedbackHandler(uc FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{uc: uc}
}

type SubmitFeedbackRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"omitempty,uuid"`
	FeedbackText string `json:"feedback_text"`
	Rating       int    `json:"rating"`
}

type SubmitFeedbackResponse struct {
	Message string         `json:"message"`
	Data    model.Feedback `json:"data"`
}

func (h *FeedbackHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/submit-feedback", h.submit)
}

// スタッフ用（/admin/restaurants/:restaurantId）
func (h *FeedbackHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/feedbacks", h.list)
}

func (h *FeedbackHandler) submit(c echo.Context) error {
	var req SubmitFeedbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	fb, err := h.uc.Submit(c.Request().Context(), usecase.SubmitFeedbackInput{
		RestaurantID: req.RestaurantID,
		FeedbackText: req.FeedbackText,
		Rating:       req.Rating,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SubmitFeedbackResponse{Message: "Feedback submitted successfully", Data: fb})
}

func (h *FeedbackHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c, 20)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), c.Param("restaurantId"), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// page/limit のクエリ。未指定はdefault
func parsePaging(c echo.Context, defaultLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}
