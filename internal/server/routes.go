package server

import (
	"tableorder/internal/handler"
	"tableorder/internal/middleware"
	"tableorder/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health     *handler.HealthHandler
	Menu       *handler.MenuHandler
	Cart       *handler.CartHandler
	CartWS     *handler.CartWSHandler
	Order      *handler.OrderHandler
	Checkout   *handler.CheckoutHandler
	Feedback   *handler.FeedbackHandler
	Auth       *handler.AuthHandler
	AdminMenu  *handler.AdminMenuHandler
	AdminOrder *handler.AdminOrderHandler
	AuditLog   *handler.AuditLogHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, staffRepo repository.StaffUserRepository) {
	// 客（テーブル）側は認証なし
	h.Health.RegisterRoutes(e)
	h.Menu.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e)
	h.CartWS.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e)
	h.Feedback.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)

	// スタッフ
	admin := e.Group("/admin/restaurants/:restaurantId")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.ActiveStaffGuard(staffRepo))
	admin.Use(middleware.RestaurantGuard())

	h.AdminMenu.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.Feedback.RegisterAdminRoutes(admin)
	h.AuditLog.RegisterRoutes(admin)
}
