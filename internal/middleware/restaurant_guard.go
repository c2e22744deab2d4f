package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// トークンの店舗とパスの:restaurantIdが一致するか確認します。
func RestaurantGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid, ok := c.Get(CtxRestaurantIDKey).(string)
			if !ok || rid == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//他店舗のデータは触らせない
			if c.Param("restaurantId") != rid {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			return next(c)
		}
	}
}
