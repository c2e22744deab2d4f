package middleware

import (
	"net/http"

	"tableorder/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのスタッフがまだ有効か DB で確認。停止・異動したら発行済みトークンも通さない。
func ActiveStaffGuard(staffRepo repository.StaffUserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたstaff_idを取得する
			staffID, ok := c.Get(CtxStaffIDKey).(string)
			if !ok || staffID == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rid, _ := c.Get(CtxRestaurantIDKey).(string)

			//DBから最新のスタッフを取得する
			staff, err := staffRepo.FindByID(c.Request().Context(), staffID)
			if err != nil || staff == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if !staff.IsActive || staff.RestaurantID != rid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
