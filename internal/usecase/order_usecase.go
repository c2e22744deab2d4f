package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tableorder/internal/domain/cart"
	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// テーブル注文一覧の上限
const tableOrdersLimit = 50

type OrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	items    repo.OrderItemRepository
	cache    CartCache
	notifier CartNotifier
	events   OrderEventPublisher
	gateway  PaymentGateway
	taxRate  decimal.Decimal
	log      *zap.Logger
}

// DI
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	cache CartCache,
	notifier CartNotifier,
	events OrderEventPublisher,
	gateway PaymentGateway,
	taxRate decimal.Decimal,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		orders:   orders,
		items:    items,
		cache:    cache,
		notifier: notifier,
		events:   events,
		gateway:  gateway,
		taxRate:  taxRate,
		log:      log,
	}
}

type PlaceOrderInput struct {
	IdempotencyKey string // 任意
}

type OrderItemOutput struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
}

type OrderOutput struct {
	ID           string            `json:"id"`
	RestaurantID string            `json:"restaurant_id"`
	TableID      string            `json:"table_id"`
	OrderNumber  int64             `json:"order_number"`
	Status       string            `json:"status"`
	Subtotal     int64             `json:"subtotal"`
	Tax          int64             `json:"tax"`
	TotalPrice   int64             `json:"total_price"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderItemOutput `json:"items"`
}

// PlaceOrder はテーブルのカートをキッチンに送る（後払い）。
// 支払い途中のCheckout Sessionは同じ明細を二重に注文しないよう閉じる。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, restaurantID string, tableID string, in PlaceOrderInput) (OrderOutput, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return OrderOutput{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput
	var superseded []string
	created := false

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if key != "" {
			// 同じキーなら同じ結果
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, restaurantID, key)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		rows, err := r.Carts().ListByTableForUpdate(ctx, restaurantID, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(rows) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		var idem *string
		if key != "" {
			idem = &key
		}
		order, items, err := createOrder(ctx, r, newOrder{
			RestaurantID:   restaurantID,
			TableID:        tableID,
			Status:         model.OrderStatusPending,
			Lines:          toLines(rows),
			IdempotencyKey: idem,
		}, u.taxRate)
		if err != nil {
			return err
		}
		if _, err := r.Carts().ClearTable(ctx, restaurantID, tableID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// カートのロックを取ってから決済行
		superseded, err = r.Payments().ExpireOpenByTable(ctx, restaurantID, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, items)
		created = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		dropSnapshot(ctx, u.cache, u.notifier, u.log, restaurantID, tableID, CartEventCleared)
		publishOrderEvent(ctx, u.events, u.log, OrderEventPlaced, out)
		for _, sid := range superseded {
			if err := u.gateway.ExpireCheckoutSession(ctx, sid); err != nil {
				u.log.Warn("checkout session expire failed", zap.String("session_id", sid), zap.String("order_id", out.ID), zap.Error(err))
			}
		}
	}
	return out, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, restaurantID string, orderID string) (OrderOutput, error) {
	if !validID(restaurantID) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	if !validID(orderID) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他店の注文は「存在しない扱い」にする
	if o.RestaurantID != restaurantID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.items.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o, items), nil
}

// テーブルの注文履歴（新しい順）
func (u *OrderUsecase) ListTableOrders(ctx context.Context, restaurantID string, tableID string) ([]OrderOutput, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return []OrderOutput{}, err
	}

	orders, err := u.orders.ListByTable(ctx, restaurantID, tableID, tableOrdersLimit)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

type newOrder struct {
	RestaurantID     string
	TableID          string
	Status           model.OrderStatus
	Lines            []cart.Line
	IdempotencyKey   *string
	PaymentSessionID *string
}

// createOrder は採番→注文→明細をトランザクション内で行う。
// 注文確定と決済完了の両方から呼ぶ。カートの後始末は呼び出し側。
func createOrder(ctx context.Context, r repo.TxRepos, in newOrder, taxRate decimal.Decimal) (model.Order, []model.OrderItem, error) {
	number, err := r.OrderCounters().Next(ctx, in.RestaurantID)
	if err != nil {
		return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	t := cart.Compute(in.Lines, taxRate)
	order := model.Order{
		RestaurantID:     in.RestaurantID,
		TableID:          in.TableID,
		OrderNumber:      number,
		Status:           in.Status,
		Subtotal:         t.Subtotal,
		Tax:              t.Tax,
		TotalPrice:       t.Total,
		IdempotencyKey:   in.IdempotencyKey,
		PaymentSessionID: in.PaymentSessionID,
	}
	if err := r.Orders().Create(ctx, &order); err != nil {
		// 同じキーの同時送信
		if errors.Is(err, repo.ErrConflict) {
			return model.Order{}, nil, NewHTTPError(http.StatusConflict, "duplicate request")
		}
		return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//スナップショット
	items := make([]model.OrderItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		items = append(items, model.OrderItem{
			MenuItemID:        l.MenuItemID,
			NameSnapshot:      l.Name,
			UnitPriceSnapshot: l.UnitPrice,
			Quantity:          l.Quantity,
		})
	}
	if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
		return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return order, items, nil
}

// イベント送信の失敗は注文を失敗させない
func publishOrderEvent(ctx context.Context, events OrderEventPublisher, log *zap.Logger, typ string, o OrderOutput) {
	ev := OrderEvent{
		Type:         typ,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		TableID:      o.TableID,
		OrderNumber:  o.OrderNumber,
		Status:       o.Status,
		Total:        o.TotalPrice,
		Items:        o.Items,
		OccurredAt:   time.Now().UTC(),
	}
	if err := events.Publish(ctx, ev); err != nil {
		log.Warn("order event publish failed", zap.String("event", typ), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       it.NameSnapshot,
			Price:      it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
		})
	}

	return OrderOutput{
		ID:           o.ID,
		RestaurantID: o.RestaurantID,
		TableID:      o.TableID,
		OrderNumber:  o.OrderNumber,
		Status:       string(o.Status),
		Subtotal:     o.Subtotal,
		Tax:          o.Tax,
		TotalPrice:   o.TotalPrice,
		CreatedAt:    o.CreatedAt,
		Items:        outItems,
	}
}
