package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	items  repo.OrderItemRepository
	events OrderEventPublisher
	log    *zap.Logger
}

// DI
func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	events OrderEventPublisher,
	log *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, items: items, events: events, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧（キッチン画面）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	if !validID(f.RestaurantID) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if f.TableID != "" && !validTableID(f.TableID) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return AdminOrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ステータス更新。遷移表に無い変更は409。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorStaffID string, restaurantID string, orderID string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorStaffID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !validID(orderID) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同時の遷移を直列にするため行ロック
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.RestaurantID != restaurantID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		if !o.Status.CanTransitionTo(newStatus) {
			return NewHTTPError(http.StatusConflict, "invalid status transition")
		}

		beforeStatus := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			RestaurantID: restaurantID,
			ActorStaffID: actorStaffID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(beforeStatus) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		changed = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		typ := OrderEventStatusChanged
		if newStatus == model.OrderStatusPaid {
			typ = OrderEventSettled
		}
		publishOrderEvent(ctx, u.events, u.log, typ, out)
	}
	return out, nil
}

// 期間パラメータ（RFC3339）。空ならnil
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
