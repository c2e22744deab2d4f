package handler

import (
	"context"
	"errors"
	"net/http"

	auth "tableorder/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type LoginService interface {
	Execute(ctx context.Context, in auth.LoginInput) (auth.LoginOutput, error)
}

type AuthHandler struct {
	loginUC LoginService // ログインusecase
}

// DIコンストラクタ
func NewAuthHandler(loginUC LoginService) *AuthHandler {
	return &AuthHandler{loginUC: loginUC}
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/login", h.login)
}

// POST /auth/login
func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// どれが違うかは返さない
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
