package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tableorder/internal/domain/cart"
	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// CheckoutUsecase はStripe Checkoutでの即時払い。
// 支払い完了時にカートのスナップショットからPAIDの注文を作る。
type CheckoutUsecase struct {
	tx       repo.TransactionManager
	carts    repo.CartRepository
	payments repo.PaymentRepository
	gateway  PaymentGateway
	cache    CartCache
	notifier CartNotifier
	events   OrderEventPublisher
	currency string
	taxRate  decimal.Decimal
	feURL    string
	log      *zap.Logger
}

type CheckoutConfig struct {
	Currency string
	TaxRate  decimal.Decimal
	FEURL    string // success/cancel URL 省略時の基準
}

// DI
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	payments repo.PaymentRepository,
	gateway PaymentGateway,
	cache CartCache,
	notifier CartNotifier,
	events OrderEventPublisher,
	cfg CheckoutConfig,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:       tx,
		carts:    carts,
		payments: payments,
		gateway:  gateway,
		cache:    cache,
		notifier: notifier,
		events:   events,
		currency: cfg.Currency,
		taxRate:  cfg.TaxRate,
		feURL:    strings.TrimRight(cfg.FEURL, "/"),
		log:      log,
	}
}

type CreateCheckoutInput struct {
	RestaurantID string
	TableID      string
	SuccessURL   string
	CancelURL    string
}

type CheckoutSessionOutput struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutResultOutput struct {
	ReceiptURL    string `json:"receipt_url"`
	OrderNumber   int64  `json:"order_number,omitempty"`
	PaymentStatus string `json:"payment_status"`
}

// CreateSession はテーブルのカートからCheckout Sessionを作る。
func (u *CheckoutUsecase) CreateSession(ctx context.Context, in CreateCheckoutInput) (CheckoutSessionOutput, error) {
	if in.RestaurantID == "" || in.TableID == "" {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}
	if err := validateTable(in.RestaurantID, in.TableID); err != nil {
		return CheckoutSessionOutput{}, err
	}

	successURL := strings.TrimSpace(in.SuccessURL)
	if successURL == "" {
		successURL = u.feURL + "/success?session_id=" + checkoutSessionPlaceholder
	}
	cancelURL := strings.TrimSpace(in.CancelURL)
	if cancelURL == "" {
		cancelURL = fmt.Sprintf("%s/restaurants/%s/tables/%s/payment", u.feURL, in.RestaurantID, in.TableID)
	}
	if !absoluteURL(successURL) || !absoluteURL(cancelURL) {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid redirect url")
	}
	successURL = withSessionID(successURL)

	rows, err := u.carts.ListByTable(ctx, in.RestaurantID, in.TableID)
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(rows) == 0 {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	lines := toLines(rows)
	totals := cart.Compute(lines, u.taxRate)

	params := CheckoutSessionParams{
		Currency:   u.currency,
		Lines:      checkoutLineItems(lines, totals),
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata: map[string]string{
			"restaurant_id": in.RestaurantID,
			"table_id":      in.TableID,
		},
	}

	sess, err := u.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		u.log.Error("checkout session create failed", zap.String("restaurant_id", in.RestaurantID), zap.String("table_id", in.TableID), zap.Error(err))
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	payment := model.Payment{
		RestaurantID: in.RestaurantID,
		TableID:      in.TableID,
		SessionID:    sess.ID,
		Amount:       totals.Total,
		Currency:     u.currency,
		Status:       model.PaymentStatusOpen,
		Lines:        toPaymentLines(lines),
	}
	if err := u.payments.Create(ctx, &payment); err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CheckoutSessionOutput{ID: sess.ID, URL: sess.URL}, nil
}

// GetSession は決済結果の確認。支払い済みなら注文を確定する。
func (u *CheckoutUsecase) GetSession(ctx context.Context, sessionID string) (CheckoutResultOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutResultOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid session ID")
	}

	sess, err := u.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		u.log.Error("checkout session retrieve failed", zap.String("session_id", sessionID), zap.Error(err))
		return CheckoutResultOutput{}, NewHTTPError(http.StatusBadGateway, "Unable to retrieve checkout session")
	}

	return u.complete(ctx, sess)
}

// HandleWebhook は署名を検証してイベントを処理する。
// 対象外のイベントは何もしない。
func (u *CheckoutUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		u.log.Warn("webhook signature rejected", zap.Error(err))
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	switch ev.Type {
	case GatewayEventSessionCompleted, GatewayEventAsyncPaymentSucceeded:
		// 領収書URLはイベントに含まれないので取り直す
		sess, err := u.gateway.GetCheckoutSession(ctx, ev.Session.ID)
		if err != nil {
			u.log.Error("checkout session retrieve failed", zap.String("session_id", ev.Session.ID), zap.Error(err))
			return NewHTTPError(http.StatusBadGateway, "Unable to retrieve checkout session")
		}
		_, err = u.complete(ctx, sess)
		if he, ok := AsHTTPError(err); ok && he.Status == http.StatusNotFound {
			// 他環境で作ったセッション。再送させない
			u.log.Warn("webhook for unknown checkout session", zap.String("session_id", sess.ID))
			return nil
		}
		return err

	case GatewayEventSessionExpired:
		return u.expire(ctx, ev.Session.ID)
	}

	u.log.Debug("webhook event ignored", zap.String("type", ev.Type))
	return nil
}

func (u *CheckoutUsecase) complete(ctx context.Context, sess GatewaySession) (CheckoutResultOutput, error) {
	restaurantID := sess.Metadata["restaurant_id"]
	tableID := sess.Metadata["table_id"]
	if restaurantID == "" || tableID == "" {
		return CheckoutResultOutput{}, NewHTTPError(http.StatusBadRequest, "Missing restaurant_id or table_id in session metadata")
	}

	out := CheckoutResultOutput{
		ReceiptURL:    sess.ReceiptURL,
		PaymentStatus: sess.PaymentStatus,
	}
	if sess.PaymentStatus != "paid" {
		return out, nil
	}

	var placed *OrderOutput
	cartEvent := CartEventCleared

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文確定と同じ順（カート→決済行）でロックする
		rows, err := r.Carts().ListByTableForUpdate(ctx, restaurantID, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p, err := r.Payments().FindBySessionIDForUpdate(ctx, sess.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.RestaurantID != restaurantID || p.TableID != tableID {
			return NewHTTPError(http.StatusBadRequest, "session metadata mismatch")
		}

		switch {
		case p.Status == model.PaymentStatusCompleted && p.OrderID != nil:
			// 2回目以降は保存済みの結果を返す
			o, err := r.Orders().FindByID(ctx, *p.OrderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.OrderNumber = o.OrderNumber
			if p.ReceiptURL != "" {
				out.ReceiptURL = p.ReceiptURL
			}
			return nil

		case p.Status != model.PaymentStatusOpen:
			// 先に注文確定でキッチンへ送られた明細。返金対応が必要
			u.log.Error("paid checkout session is no longer open",
				zap.String("session_id", sess.ID),
				zap.String("payment_status", string(p.Status)),
				zap.String("restaurant_id", restaurantID),
				zap.String("table_id", tableID))
			return nil
		}

		sid := sess.ID
		order, items, err := createOrder(ctx, r, newOrder{
			RestaurantID:     restaurantID,
			TableID:          tableID,
			Status:           model.OrderStatusPaid,
			Lines:            fromPaymentLines(p.Lines),
			PaymentSessionID: &sid,
		}, u.taxRate)
		if err != nil {
			return err
		}

		left, err := consumePaidLines(ctx, r, restaurantID, tableID, rows, p.Lines)
		if err != nil {
			return err
		}
		if left > 0 {
			cartEvent = CartEventUpdated
		}

		if err := r.Payments().MarkCompleted(ctx, sess.ID, order.ID, sess.ReceiptURL); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o := toOrderOutput(order, items)
		placed = &o
		out.OrderNumber = order.OrderNumber
		return nil
	})
	if err != nil {
		return CheckoutResultOutput{}, err
	}

	if placed != nil {
		dropSnapshot(ctx, u.cache, u.notifier, u.log, restaurantID, tableID, cartEvent)
		publishOrderEvent(ctx, u.events, u.log, OrderEventPaid, *placed)
	}
	return out, nil
}

// 支払った数量だけカートから引く。決済後に足された明細は残る。
// 残った明細の数を返す。
func consumePaidLines(ctx context.Context, r repo.TxRepos, restaurantID string, tableID string, rows []model.CartItem, paid []model.PaymentLine) (int, error) {
	byItem := make(map[string]model.CartItem, len(rows))
	for _, row := range rows {
		byItem[row.MenuItemID] = row
	}

	for _, l := range paid {
		row, ok := byItem[l.MenuItemID]
		if !ok {
			continue
		}

		var err error
		if left := row.Quantity - l.Quantity; left > 0 {
			row.Quantity = left
			byItem[l.MenuItemID] = row
			err = r.Carts().UpdateLine(ctx, row)
		} else {
			delete(byItem, l.MenuItemID)
			err = r.Carts().DeleteByID(ctx, restaurantID, tableID, row.ID)
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return 0, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return len(byItem), nil
}

func (u *CheckoutUsecase) expire(ctx context.Context, sessionID string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindBySessionIDForUpdate(ctx, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			// 他環境で作ったセッション
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.Status != model.PaymentStatusOpen {
			return nil
		}
		if err := r.Payments().UpdateStatus(ctx, sessionID, model.PaymentStatusExpired); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func checkoutLineItems(lines []cart.Line, t cart.Totals) []CheckoutLineItem {
	items := make([]CheckoutLineItem, 0, len(lines)+1)
	for _, l := range lines {
		items = append(items, CheckoutLineItem{
			Name:       l.Name,
			UnitAmount: l.UnitPrice,
			Quantity:   l.Quantity,
		})
	}
	if t.Tax > 0 {
		items = append(items, CheckoutLineItem{Name: "Taxes", UnitAmount: t.Tax, Quantity: 1})
	}
	return items
}

func toPaymentLines(lines []cart.Line) []model.PaymentLine {
	out := make([]model.PaymentLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.PaymentLine{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
		})
	}
	return out
}

func fromPaymentLines(lines []model.PaymentLine) []cart.Line {
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, cart.Line{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
		})
	}
	return out
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// success_url に session_id が無ければ付ける
func withSessionID(raw string) string {
	if strings.Contains(raw, checkoutSessionPlaceholder) {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "session_id=" + checkoutSessionPlaceholder
}
