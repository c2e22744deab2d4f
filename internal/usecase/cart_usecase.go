package usecase

import (
	"context"
	"errors"
	"net/http"

	"tableorder/internal/domain/cart"
	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartUsecase はテーブルカートの業務ロジックです。
// DBが正。変更のたびにスナップショットを書き直し、同じテーブルへ通知する。
type CartUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	menus     repo.MenuRepository
	menuItems repo.MenuItemRepository
	cache     CartCache
	notifier  CartNotifier
	taxRate   decimal.Decimal
	log       *zap.Logger
}

// DI
func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	menus repo.MenuRepository,
	menuItems repo.MenuItemRepository,
	cache CartCache,
	notifier CartNotifier,
	taxRate decimal.Decimal,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		carts:     carts,
		menus:     menus,
		menuItems: menuItems,
		cache:     cache,
		notifier:  notifier,
		taxRate:   taxRate,
		log:       log,
	}
}

type CartResponse struct {
	RestaurantID string      `json:"restaurant_id"`
	TableID      string      `json:"table_id"`
	Items        []cart.Line `json:"items"`
	Count        int64       `json:"count"`
	Subtotal     int64       `json:"subtotal"`
	Tax          int64       `json:"tax"`
	Total        int64       `json:"total"`
}

type AddCartItemInput struct {
	MenuItemID string
	Quantity   int64 // 0なら1
}

// GetCart はスナップショットを先に見て、無ければDBから作る。
func (u *CartUsecase) GetCart(ctx context.Context, restaurantID string, tableID string) (CartResponse, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return CartResponse{}, err
	}

	if cached, ok, err := u.cache.Get(ctx, restaurantID, tableID); err != nil {
		u.log.Warn("cart snapshot read failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	// 読み込み中に変更が入ったら書かない
	version, verErr := u.cache.Version(ctx, restaurantID, tableID)
	out, err := u.load(ctx, restaurantID, tableID)
	if err != nil {
		return CartResponse{}, err
	}
	if verErr != nil {
		u.log.Warn("cart snapshot version read failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(verErr))
		return out, nil
	}
	u.storeSnapshot(ctx, version, out)
	return out, nil
}

// AddItem はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, restaurantID string, tableID string, in AddCartItemInput) (CartResponse, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return CartResponse{}, err
	}
	if !validID(in.MenuItemID) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid menu_item_id")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 || in.Quantity > cart.MaxQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開中メニューの公開商品のみ）
	item, err := u.orderableItem(ctx, restaurantID, in.MenuItemID)
	if err != nil {
		return CartResponse{}, err
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, err := r.Carts().ListByTableForUpdate(ctx, restaurantID, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		_, line, created, err := cart.Add(toLines(rows), cart.Line{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   in.Quantity,
		})
		if err != nil {
			return cartError(err)
		}

		row := model.CartItem{
			ID:                line.ID,
			RestaurantID:      restaurantID,
			TableID:           tableID,
			MenuItemID:        line.MenuItemID,
			Name:              line.Name,
			UnitPriceSnapshot: line.UnitPrice,
			Quantity:          line.Quantity,
		}
		if created {
			// 同時追加は DB 側で加算される
			err = r.Carts().InsertOrMerge(ctx, &row)
		} else {
			err = r.Carts().UpdateLine(ctx, row)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}

	return u.afterChange(ctx, restaurantID, tableID)
}

// UpdateQuantity は数量を上書きする。0なら明細を消す。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, restaurantID string, tableID string, lineID string, qty int64) (CartResponse, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return CartResponse{}, err
	}
	if !validID(lineID) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if qty < 0 || qty > cart.MaxQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, err := r.Carts().ListByTableForUpdate(ctx, restaurantID, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		_, line, removed, err := cart.SetQuantity(toLines(rows), lineID, qty)
		if err != nil {
			return cartError(err)
		}

		if removed {
			err = r.Carts().DeleteByID(ctx, restaurantID, tableID, lineID)
		} else {
			err = r.Carts().UpdateLine(ctx, model.CartItem{
				ID:                line.ID,
				Name:              line.Name,
				UnitPriceSnapshot: line.UnitPrice,
				Quantity:          line.Quantity,
			})
		}
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}

	return u.afterChange(ctx, restaurantID, tableID)
}

// 明細削除
func (u *CartUsecase) RemoveItem(ctx context.Context, restaurantID string, tableID string, lineID string) (CartResponse, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return CartResponse{}, err
	}
	if !validID(lineID) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.carts.DeleteByID(ctx, restaurantID, tableID, lineID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.afterChange(ctx, restaurantID, tableID)
}

// Clear はテーブルの明細を全部消す。
func (u *CartUsecase) Clear(ctx context.Context, restaurantID string, tableID string) (CartResponse, error) {
	if err := validateTable(restaurantID, tableID); err != nil {
		return CartResponse{}, err
	}

	if _, err := u.carts.ClearTable(ctx, restaurantID, tableID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	dropSnapshot(ctx, u.cache, u.notifier, u.log, restaurantID, tableID, CartEventCleared)
	return buildCartResponse(restaurantID, tableID, nil, u.taxRate), nil
}

func (u *CartUsecase) orderableItem(ctx context.Context, restaurantID string, menuItemID string) (model.MenuItem, error) {
	item, err := u.menuItems.FindByID(ctx, menuItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	menu, err := u.menus.FindByID(ctx, item.MenuID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	// 他店の商品は存在しない扱い
	if menu.RestaurantID != restaurantID {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if !menu.IsEnabled || !item.IsVisible {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "menu item unavailable")
	}
	return item, nil
}

// 変更後: 世代を進めてからDBを読み直し、スナップショット更新＋通知
func (u *CartUsecase) afterChange(ctx context.Context, restaurantID string, tableID string) (CartResponse, error) {
	version, verErr := u.cache.Invalidate(ctx, restaurantID, tableID)
	if verErr != nil {
		u.log.Warn("cart snapshot invalidate failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(verErr))
	}

	out, err := u.load(ctx, restaurantID, tableID)
	if err != nil {
		return CartResponse{}, err
	}

	if verErr == nil {
		u.storeSnapshot(ctx, version, out)
	}
	if err := u.notifier.Publish(ctx, restaurantID, tableID, CartEventUpdated); err != nil {
		u.log.Warn("cart publish failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(err))
	}
	return out, nil
}

func (u *CartUsecase) load(ctx context.Context, restaurantID string, tableID string) (CartResponse, error) {
	rows, err := u.carts.ListByTable(ctx, restaurantID, tableID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return buildCartResponse(restaurantID, tableID, toLines(rows), u.taxRate), nil
}

func (u *CartUsecase) storeSnapshot(ctx context.Context, version int64, out CartResponse) {
	stored, err := u.cache.SetIfVersion(ctx, out.RestaurantID, out.TableID, version, out)
	if err != nil {
		u.log.Warn("cart snapshot write failed", zap.String("restaurant_id", out.RestaurantID), zap.String("table_id", out.TableID), zap.Error(err))
		return
	}
	if !stored {
		u.log.Debug("cart snapshot skipped: newer change", zap.String("restaurant_id", out.RestaurantID), zap.String("table_id", out.TableID))
	}
}

// 注文確定・決済完了・クリアの後に呼ぶ
func dropSnapshot(ctx context.Context, cache CartCache, notifier CartNotifier, log *zap.Logger, restaurantID string, tableID string, event string) {
	if _, err := cache.Invalidate(ctx, restaurantID, tableID); err != nil {
		log.Warn("cart snapshot invalidate failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(err))
	}
	if err := notifier.Publish(ctx, restaurantID, tableID, event); err != nil {
		log.Warn("cart publish failed", zap.String("restaurant_id", restaurantID), zap.String("table_id", tableID), zap.Error(err))
	}
}

func buildCartResponse(restaurantID string, tableID string, lines []cart.Line, taxRate decimal.Decimal) CartResponse {
	if lines == nil {
		lines = []cart.Line{}
	}
	t := cart.Compute(lines, taxRate)
	return CartResponse{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Items:        lines,
		Count:        cart.Count(lines),
		Subtotal:     t.Subtotal,
		Tax:          t.Tax,
		Total:        t.Total,
	}
}

func toLines(rows []model.CartItem) []cart.Line {
	lines := make([]cart.Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, cart.Line{
			ID:         r.ID,
			MenuItemID: r.MenuItemID,
			Name:       r.Name,
			UnitPrice:  r.UnitPriceSnapshot,
			Quantity:   r.Quantity,
		})
	}
	return lines
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, cart.ErrQuantityTooLarge):
		return NewHTTPError(http.StatusBadRequest, "quantity too large")
	case errors.Is(err, cart.ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
