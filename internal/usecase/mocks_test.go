package usecase_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"
	"tableorder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	restaurants   repo.RestaurantRepository
	menuItems     repo.MenuItemRepository
	carts         repo.CartRepository
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	orderCounters repo.OrderCounterRepository
	payments      repo.PaymentRepository
	staffUsers    repo.StaffUserRepository
	auditLogs     repo.AuditLogRepository
}

func (r *TxReposMock) Restaurants() repo.RestaurantRepository     { return r.restaurants }
func (r *TxReposMock) MenuItems() repo.MenuItemRepository         { return r.menuItems }
func (r *TxReposMock) Carts() repo.CartRepository                 { return r.carts }
func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) OrderCounters() repo.OrderCounterRepository { return r.orderCounters }
func (r *TxReposMock) Payments() repo.PaymentRepository           { return r.payments }
func (r *TxReposMock) StaffUsers() repo.StaffUserRepository       { return r.staffUsers }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type RestaurantRepoMock struct{ mock.Mock }

func (m *RestaurantRepoMock) FindByID(ctx context.Context, id string) (model.Restaurant, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(model.Restaurant)
	return r, args.Error(1)
}

func (m *RestaurantRepoMock) Create(ctx context.Context, r *model.Restaurant) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MenuRepoMock struct{ mock.Mock }

func (m *MenuRepoMock) FindByID(ctx context.Context, id string) (model.Menu, error) {
	args := m.Called(ctx, id)
	menu, _ := args.Get(0).(model.Menu)
	return menu, args.Error(1)
}

func (m *MenuRepoMock) FindEnabledByRestaurant(ctx context.Context, restaurantID string) (model.Menu, error) {
	args := m.Called(ctx, restaurantID)
	menu, _ := args.Get(0).(model.Menu)
	return menu, args.Error(1)
}

func (m *MenuRepoMock) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error) {
	args := m.Called(ctx, restaurantID)
	menus, _ := args.Get(0).([]model.Menu)
	return menus, args.Error(1)
}

func (m *MenuRepoMock) Create(ctx context.Context, menu *model.Menu) error {
	args := m.Called(ctx, menu)
	return args.Error(0)
}

func (m *MenuRepoMock) Rename(ctx context.Context, id string, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MenuRepoMock) Enable(ctx context.Context, restaurantID string, menuID string) error {
	args := m.Called(ctx, restaurantID, menuID)
	return args.Error(0)
}

func (m *MenuRepoMock) Disable(ctx context.Context, menuID string) error {
	args := m.Called(ctx, menuID)
	return args.Error(0)
}

type MenuCategoryRepoMock struct{ mock.Mock }

func (m *MenuCategoryRepoMock) FindByID(ctx context.Context, id string) (model.MenuCategory, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.MenuCategory)
	return c, args.Error(1)
}

func (m *MenuCategoryRepoMock) ListByMenu(ctx context.Context, menuID string) ([]model.MenuCategory, error) {
	args := m.Called(ctx, menuID)
	cats, _ := args.Get(0).([]model.MenuCategory)
	return cats, args.Error(1)
}

func (m *MenuCategoryRepoMock) Create(ctx context.Context, c *model.MenuCategory) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MenuCategoryRepoMock) Update(ctx context.Context, id string, name string, position int) error {
	args := m.Called(ctx, id, name, position)
	return args.Error(0)
}

func (m *MenuCategoryRepoMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MenuItemRepoMock struct{ mock.Mock }

func (m *MenuItemRepoMock) FindByID(ctx context.Context, id string) (model.MenuItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(model.MenuItem)
	return it, args.Error(1)
}

func (m *MenuItemRepoMock) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuItemRepoMock) Create(ctx context.Context, item *model.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MenuItemRepoMock) Update(ctx context.Context, item model.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MenuItemRepoMock) SetImageURL(ctx context.Context, id string, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MenuItemRepoMock) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListByTable(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error) {
	args := m.Called(ctx, restaurantID, tableID)
	rows, _ := args.Get(0).([]model.CartItem)
	return rows, args.Error(1)
}

func (m *CartRepoMock) ListByTableForUpdate(ctx context.Context, restaurantID string, tableID string) ([]model.CartItem, error) {
	args := m.Called(ctx, restaurantID, tableID)
	rows, _ := args.Get(0).([]model.CartItem)
	return rows, args.Error(1)
}

func (m *CartRepoMock) InsertOrMerge(ctx context.Context, item *model.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CartRepoMock) UpdateLine(ctx context.Context, item model.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CartRepoMock) DeleteByID(ctx context.Context, restaurantID string, tableID string, lineID string) error {
	args := m.Called(ctx, restaurantID, tableID, lineID)
	return args.Error(0)
}

func (m *CartRepoMock) ClearTable(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	args := m.Called(ctx, restaurantID, tableID)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByTable(ctx context.Context, restaurantID string, tableID string, limit int) ([]model.Order, error) {
	args := m.Called(ctx, restaurantID, tableID, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, restaurantID string, key string) (model.Order, bool, error) {
	args := m.Called(ctx, restaurantID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderCounterRepoMock struct{ mock.Mock }

func (m *OrderCounterRepoMock) Next(ctx context.Context, restaurantID string) (int64, error) {
	args := m.Called(ctx, restaurantID)
	return args.Get(0).(int64), args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, p *model.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PaymentRepoMock) FindBySessionID(ctx context.Context, sessionID string) (model.Payment, error) {
	args := m.Called(ctx, sessionID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) FindBySessionIDForUpdate(ctx context.Context, sessionID string) (model.Payment, error) {
	args := m.Called(ctx, sessionID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) MarkCompleted(ctx context.Context, sessionID string, orderID string, receiptURL string) error {
	args := m.Called(ctx, sessionID, orderID, receiptURL)
	return args.Error(0)
}

func (m *PaymentRepoMock) UpdateStatus(ctx context.Context, sessionID string, status model.PaymentStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

func (m *PaymentRepoMock) ExpireOpenByTable(ctx context.Context, restaurantID string, tableID string) ([]string, error) {
	args := m.Called(ctx, restaurantID, tableID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type FeedbackRepoMock struct{ mock.Mock }

func (m *FeedbackRepoMock) Create(ctx context.Context, f *model.Feedback) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *FeedbackRepoMock) ListByRestaurant(ctx context.Context, restaurantID string, page int, limit int) ([]model.Feedback, int64, error) {
	args := m.Called(ctx, restaurantID, page, limit)
	items, _ := args.Get(0).([]model.Feedback)
	return items, args.Get(1).(int64), args.Error(2)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) ListByRestaurant(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, q)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

// =====================
// Port mocks
// =====================

type CartCacheMock struct{ mock.Mock }

func (m *CartCacheMock) Get(ctx context.Context, restaurantID string, tableID string) (usecase.CartResponse, bool, error) {
	args := m.Called(ctx, restaurantID, tableID)
	c, _ := args.Get(0).(usecase.CartResponse)
	return c, args.Bool(1), args.Error(2)
}

func (m *CartCacheMock) Version(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	args := m.Called(ctx, restaurantID, tableID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartCacheMock) SetIfVersion(ctx context.Context, restaurantID string, tableID string, version int64, cart usecase.CartResponse) (bool, error) {
	args := m.Called(ctx, restaurantID, tableID, version, cart)
	return args.Bool(0), args.Error(1)
}

func (m *CartCacheMock) Invalidate(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	args := m.Called(ctx, restaurantID, tableID)
	return args.Get(0).(int64), args.Error(1)
}

type CartNotifierMock struct{ mock.Mock }

func (m *CartNotifierMock) Publish(ctx context.Context, restaurantID string, tableID string, event string) error {
	args := m.Called(ctx, restaurantID, tableID, event)
	return args.Error(0)
}

type EventsMock struct{ mock.Mock }

func (m *EventsMock) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckoutSession(ctx context.Context, p usecase.CheckoutSessionParams) (usecase.GatewaySession, error) {
	args := m.Called(ctx, p)
	s, _ := args.Get(0).(usecase.GatewaySession)
	return s, args.Error(1)
}

func (m *GatewayMock) GetCheckoutSession(ctx context.Context, sessionID string) (usecase.GatewaySession, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(usecase.GatewaySession)
	return s, args.Error(1)
}

func (m *GatewayMock) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *GatewayMock) ParseWebhook(payload []byte, signature string) (usecase.GatewayEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(usecase.GatewayEvent)
	return ev, args.Error(1)
}

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

type QRMock struct{ mock.Mock }

func (m *QRMock) PNG(content string, size int) ([]byte, error) {
	args := m.Called(content, size)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

// =====================
// Helpers
// =====================

// HTTPErrorの実装詳細に依存しない
func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, want, he.Status)
	}
}

const (
	restaurantID = "11111111-1111-1111-1111-111111111111"
	otherRestID  = "22222222-2222-2222-2222-222222222222"
	menuID       = "33333333-3333-3333-3333-333333333333"
	itemID       = "44444444-4444-4444-4444-444444444444"
	lineID       = "55555555-5555-5555-5555-555555555555"
	orderID      = "66666666-6666-6666-6666-666666666666"
	categoryID   = "77777777-7777-7777-7777-777777777777"
	staffID      = "88888888-8888-8888-8888-888888888888"
	tableID      = "T1"
)
