package usecase

import (
	"context"
	"io"
	"time"
)

// テーブルカートのスナップショット（Redis）。DBが正で、こちらは読み出し用。
// 書き込みは世代つき。DBを読む前に取った世代が変わっていれば書かない。
type CartCache interface {
	Get(ctx context.Context, restaurantID string, tableID string) (CartResponse, bool, error)
	Version(ctx context.Context, restaurantID string, tableID string) (int64, error)
	SetIfVersion(ctx context.Context, restaurantID string, tableID string, version int64, cart CartResponse) (bool, error)
	// Invalidate はスナップショットを消して世代を進める。進めた後の世代を返す。
	Invalidate(ctx context.Context, restaurantID string, tableID string) (int64, error)
}

// カート変更を同じテーブルの端末へ知らせる
type CartNotifier interface {
	Publish(ctx context.Context, restaurantID string, tableID string, event string) error
}

// WebSocketが購読する。戻った時点で購読は確立している
type CartSubscriber interface {
	Subscribe(ctx context.Context, restaurantID string, tableID string) (<-chan string, func() error, error)
}

const (
	CartEventUpdated = "updated"
	CartEventCleared = "cleared"
)

// 決済ゲートウェイ（Stripe Checkout）
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (GatewaySession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (GatewaySession, error)
	// 未払いのセッションを閉じる（以後は支払えない）
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	ParseWebhook(payload []byte, signature string) (GatewayEvent, error)
}

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSessionParams struct {
	Currency   string
	Lines      []CheckoutLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type GatewaySession struct {
	ID            string
	URL           string
	PaymentStatus string // paid / unpaid / no_payment_required
	Metadata      map[string]string
	AmountTotal   int64
	Currency      string
	ReceiptURL    string
}

type GatewayEvent struct {
	Type    string
	Session GatewaySession
}

const (
	GatewayEventSessionCompleted      = "checkout.session.completed"
	GatewayEventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	GatewayEventSessionExpired        = "checkout.session.expired"
)

// 注文イベント（RabbitMQ / Telegram）
type OrderEvent struct {
	Type         string            `json:"event_type"`
	OrderID      string            `json:"order_id"`
	RestaurantID string            `json:"restaurant_id"`
	TableID      string            `json:"table_id"`
	OrderNumber  int64             `json:"order_number"`
	Status       string            `json:"status"`
	Total        int64             `json:"total"`
	Items        []OrderItemOutput `json:"items"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

const (
	OrderEventPlaced = "order.placed"
	// Checkoutで支払い済みの新規注文
	OrderEventPaid = "order.paid"
	// 後払い注文をスタッフが精算した（キッチンには新規ではない）
	OrderEventSettled       = "order.settled"
	OrderEventStatusChanged = "order.status_changed"
)

type OrderEventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// 商品画像の保存先（MinIO）
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// QRコード画像
type QREncoder interface {
	PNG(content string, size int) ([]byte, error)
}
