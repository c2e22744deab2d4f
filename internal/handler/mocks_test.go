package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"tableorder/internal/domain/model"
	"tableorder/internal/handler"
	"tableorder/internal/repository"
	"tableorder/internal/usecase"
	auth "tableorder/internal/usecase/auth_usecase"
	"tableorder/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

const (
	restaurantID = "0b7e4c1e-3c3a-4a53-8b0c-6d9f3f5c2a01"
	itemID       = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	orderID      = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	staffID      = "5d0c7f0e-8a4b-4a39-9f5e-2f4f6f1a0b11"
	tableID      = "T1"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

func doRequest(e *echo.Echo, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var r handler.ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r.Error
}

// JWTの代わりにスタッフIDを入れる（OWNER）
func withStaff(id string) echo.MiddlewareFunc {
	return withStaffRole(id, "OWNER")
}

func withStaffRole(id string, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("staff_id", id)
			c.Set("restaurant_id", restaurantID)
			c.Set("staff_role", role)
			return next(c)
		}
	}
}

// =====================
// service mocks
// =====================

type menuServiceMock struct{ mock.Mock }

func (m *menuServiceMock) GetRestaurant(ctx context.Context, rid string) (usecase.RestaurantOutput, error) {
	args := m.Called(ctx, rid)
	return args.Get(0).(usecase.RestaurantOutput), args.Error(1)
}

func (m *menuServiceMock) GetMenu(ctx context.Context, rid string) (usecase.MenuOutput, error) {
	args := m.Called(ctx, rid)
	return args.Get(0).(usecase.MenuOutput), args.Error(1)
}

func (m *menuServiceMock) TableLandingURL(ctx context.Context, rid string, tid string) string {
	return m.Called(ctx, rid, tid).String(0)
}

func (m *menuServiceMock) TableQRCode(ctx context.Context, rid string, tid string, size int) ([]byte, error) {
	args := m.Called(ctx, rid, tid, size)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type cartServiceMock struct{ mock.Mock }

func (m *cartServiceMock) GetCart(ctx context.Context, rid string, tid string) (usecase.CartResponse, error) {
	args := m.Called(ctx, rid, tid)
	return args.Get(0).(usecase.CartResponse), args.Error(1)
}

func (m *cartServiceMock) AddItem(ctx context.Context, rid string, tid string, in usecase.AddCartItemInput) (usecase.CartResponse, error) {
	args := m.Called(ctx, rid, tid, in)
	return args.Get(0).(usecase.CartResponse), args.Error(1)
}

func (m *cartServiceMock) UpdateQuantity(ctx context.Context, rid string, tid string, lineID string, qty int64) (usecase.CartResponse, error) {
	args := m.Called(ctx, rid, tid, lineID, qty)
	return args.Get(0).(usecase.CartResponse), args.Error(1)
}

func (m *cartServiceMock) RemoveItem(ctx context.Context, rid string, tid string, lineID string) (usecase.CartResponse, error) {
	args := m.Called(ctx, rid, tid, lineID)
	return args.Get(0).(usecase.CartResponse), args.Error(1)
}

func (m *cartServiceMock) Clear(ctx context.Context, rid string, tid string) (usecase.CartResponse, error) {
	args := m.Called(ctx, rid, tid)
	return args.Get(0).(usecase.CartResponse), args.Error(1)
}

type orderServiceMock struct{ mock.Mock }

func (m *orderServiceMock) PlaceOrder(ctx context.Context, rid string, tid string, in usecase.PlaceOrderInput) (usecase.OrderOutput, error) {
	args := m.Called(ctx, rid, tid, in)
	return args.Get(0).(usecase.OrderOutput), args.Error(1)
}

func (m *orderServiceMock) GetOrder(ctx context.Context, rid string, oid string) (usecase.OrderOutput, error) {
	args := m.Called(ctx, rid, oid)
	return args.Get(0).(usecase.OrderOutput), args.Error(1)
}

func (m *orderServiceMock) ListTableOrders(ctx context.Context, rid string, tid string) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx, rid, tid)
	out, _ := args.Get(0).([]usecase.OrderOutput)
	return out, args.Error(1)
}

type checkoutServiceMock struct{ mock.Mock }

func (m *checkoutServiceMock) CreateSession(ctx context.Context, in usecase.CreateCheckoutInput) (usecase.CheckoutSessionOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.CheckoutSessionOutput), args.Error(1)
}

func (m *checkoutServiceMock) GetSession(ctx context.Context, id string) (usecase.CheckoutResultOutput, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usecase.CheckoutResultOutput), args.Error(1)
}

func (m *checkoutServiceMock) HandleWebhook(ctx context.Context, payload []byte, sig string) error {
	return m.Called(ctx, payload, sig).Error(0)
}

type feedbackServiceMock struct{ mock.Mock }

func (m *feedbackServiceMock) Submit(ctx context.Context, in usecase.SubmitFeedbackInput) (model.Feedback, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Feedback), args.Error(1)
}

func (m *feedbackServiceMock) List(ctx context.Context, rid string, page int, limit int) (usecase.FeedbackListOutput, error) {
	args := m.Called(ctx, rid, page, limit)
	return args.Get(0).(usecase.FeedbackListOutput), args.Error(1)
}

type loginServiceMock struct{ mock.Mock }

func (m *loginServiceMock) Execute(ctx context.Context, in auth.LoginInput) (auth.LoginOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(auth.LoginOutput), args.Error(1)
}

type adminOrderServiceMock struct{ mock.Mock }

func (m *adminOrderServiceMock) List(ctx context.Context, f repository.AdminOrderListFilter) (usecase.AdminOrderListOutput, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(usecase.AdminOrderListOutput), args.Error(1)
}

func (m *adminOrderServiceMock) UpdateStatus(ctx context.Context, actor string, rid string, oid string, in usecase.AdminUpdateOrderStatusInput) (usecase.OrderOutput, error) {
	args := m.Called(ctx, actor, rid, oid, in)
	return args.Get(0).(usecase.OrderOutput), args.Error(1)
}

type auditLogServiceMock struct{ mock.Mock }

func (m *auditLogServiceMock) List(ctx context.Context, q repository.AuditLogQuery) (usecase.AuditLogListOutput, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(usecase.AuditLogListOutput), args.Error(1)
}

type adminMenuServiceMock struct{ mock.Mock }

func (m *adminMenuServiceMock) ListMenus(ctx context.Context, rid string) ([]model.Menu, error) {
	args := m.Called(ctx, rid)
	out, _ := args.Get(0).([]model.Menu)
	return out, args.Error(1)
}

func (m *adminMenuServiceMock) CreateMenu(ctx context.Context, rid string, in usecase.AdminMenuInput) (model.Menu, error) {
	args := m.Called(ctx, rid, in)
	return args.Get(0).(model.Menu), args.Error(1)
}

func (m *adminMenuServiceMock) UpdateMenu(ctx context.Context, rid string, menuID string, in usecase.AdminMenuInput) (model.Menu, error) {
	args := m.Called(ctx, rid, menuID, in)
	return args.Get(0).(model.Menu), args.Error(1)
}

func (m *adminMenuServiceMock) ListCategories(ctx context.Context, rid string, menuID string) ([]model.MenuCategory, error) {
	args := m.Called(ctx, rid, menuID)
	out, _ := args.Get(0).([]model.MenuCategory)
	return out, args.Error(1)
}

func (m *adminMenuServiceMock) CreateCategory(ctx context.Context, rid string, in usecase.AdminCategoryInput) (model.MenuCategory, error) {
	args := m.Called(ctx, rid, in)
	return args.Get(0).(model.MenuCategory), args.Error(1)
}

func (m *adminMenuServiceMock) UpdateCategory(ctx context.Context, rid string, cid string, in usecase.AdminCategoryInput) (model.MenuCategory, error) {
	args := m.Called(ctx, rid, cid, in)
	return args.Get(0).(model.MenuCategory), args.Error(1)
}

func (m *adminMenuServiceMock) DeleteCategory(ctx context.Context, rid string, cid string) error {
	return m.Called(ctx, rid, cid).Error(0)
}

func (m *adminMenuServiceMock) ListItems(ctx context.Context, rid string, menuID string) ([]model.MenuItem, error) {
	args := m.Called(ctx, rid, menuID)
	out, _ := args.Get(0).([]model.MenuItem)
	return out, args.Error(1)
}

func (m *adminMenuServiceMock) CreateItem(ctx context.Context, rid string, in usecase.AdminMenuItemInput) (model.MenuItem, error) {
	args := m.Called(ctx, rid, in)
	return args.Get(0).(model.MenuItem), args.Error(1)
}

func (m *adminMenuServiceMock) UpdateItem(ctx context.Context, actor string, rid string, iid string, in usecase.AdminMenuItemInput) (model.MenuItem, error) {
	args := m.Called(ctx, actor, rid, iid, in)
	return args.Get(0).(model.MenuItem), args.Error(1)
}

func (m *adminMenuServiceMock) SetVisibility(ctx context.Context, actor string, rid string, iid string, visible bool) (model.MenuItem, error) {
	args := m.Called(ctx, actor, rid, iid, visible)
	return args.Get(0).(model.MenuItem), args.Error(1)
}

func (m *adminMenuServiceMock) UploadImage(ctx context.Context, rid string, iid string, in usecase.UploadImageInput) (model.MenuItem, error) {
	args := m.Called(ctx, rid, iid, in)
	return args.Get(0).(model.MenuItem), args.Error(1)
}

var (
	_ handler.MenuService       = (*menuServiceMock)(nil)
	_ handler.CartService       = (*cartServiceMock)(nil)
	_ handler.OrderService      = (*orderServiceMock)(nil)
	_ handler.CheckoutService   = (*checkoutServiceMock)(nil)
	_ handler.FeedbackService   = (*feedbackServiceMock)(nil)
	_ handler.LoginService      = (*loginServiceMock)(nil)
	_ handler.AdminOrderService = (*adminOrderServiceMock)(nil)
	_ handler.AdminMenuService  = (*adminMenuServiceMock)(nil)
)
