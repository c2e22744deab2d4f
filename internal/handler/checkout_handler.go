package handler

import (
	"context"
	"io"
	"net/http"

	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Stripeの推奨上限
const maxWebhookBody = 65536

type CheckoutService interface {
	CreateSession(ctx context.Context, in usecase.CreateCheckoutInput) (usecase.CheckoutSessionOutput, error)
	GetSession(ctx context.Context, sessionID string) (usecase.CheckoutResultOutput, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Stripe Checkout
type CheckoutHandler struct {
	uc  CheckoutService
	log *zap.Logger
}

// DI
func NewCheckoutHandler(uc CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, log: log}
}

// 空欄はusecaseで "Missing required fields" にするのでomitempty
type CreateCheckoutRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"omitempty,uuid"`
	TableID      string `json:"table_id" validate:"omitempty,tableid"`
	SuccessURL   string `json:"successUrl" validate:"omitempty,url,max=2048"`
	CancelURL    string `json:"cancelUrl" validate:"omitempty,url,max=2048"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/create-checkout-session", h.create)
	e.GET("/api/get-checkout-session", h.get)
	e.POST("/payments/webhook", h.webhook)
}

func (h *CheckoutHandler) create(c echo.Context) error {
	var req CreateCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreateSession(c.Request().Context(), usecase.CreateCheckoutInput{
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// success画面から呼ばれる。支払い済みなら注文を確定する
func (h *CheckoutHandler) get(c echo.Context) error {
	out, err := h.uc.GetSession(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		if he, ok := usecase.AsHTTPError(err); !ok || he.Status >= 500 {
			h.log.Error("webhook failed", zap.Error(err))
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
