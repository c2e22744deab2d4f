package handler

import (
	"net/http"

	"tableorder/internal/middleware"
	"tableorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bind + validateタグ。失敗はHTTPError(400)で返す
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func getStaffIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxStaffIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
