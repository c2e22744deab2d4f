package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tableorder/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// 同じテーブルの端末へカートを配信する
type CartWSHandler struct {
	carts    CartService
	sub      usecase.CartSubscriber
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type cartMessage struct {
	Type string               `json:"type"` // cart_updated
	Cart usecase.CartResponse `json:"cart"`
}

// DI
func NewCartWSHandler(carts CartService, sub usecase.CartSubscriber, allowedOrigin string, log *zap.Logger) *CartWSHandler {
	return &CartWSHandler{
		carts: carts,
		sub:   sub,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigin),
		},
		log: log,
	}
}

func (h *CartWSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/restaurants/:restaurantId/tables/:tableId/cart/ws", h.serve)
}

// Originヘッダなし（ネイティブ端末）とフロントのOriginだけ許可
func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimRight(allowed, "/")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.TrimRight(origin, "/") == allowed {
			return true
		}
		// 同一ホストは許可
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func (h *CartWSHandler) serve(c echo.Context) error {
	rid, tid := c.Param("restaurantId"), c.Param("tableId")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// 購読してから初回を読む。間に入った変更はeventsに残る
	events, closeSub, err := h.sub.Subscribe(ctx, rid, tid)
	if err != nil {
		h.log.Error("websocket subscribe failed",
			zap.String("restaurant_id", rid), zap.String("table_id", tid), zap.Error(err))
		return writeError(c, usecase.NewHTTPError(http.StatusServiceUnavailable, "cart updates unavailable"))
	}
	defer func() { _ = closeSub() }()

	// 不正なテーブルはupgrade前に弾く
	initial, err := h.carts.GetCart(ctx, rid, tid)
	if err != nil {
		return writeError(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgraderがエラーレスポンスを書いている
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	// クライアントからの読み取り（close検知とpong）
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, initial); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev != usecase.CartEventUpdated && ev != usecase.CartEventCleared {
				continue
			}
			cart, err := h.carts.GetCart(ctx, rid, tid)
			if err != nil {
				h.log.Warn("websocket cart reload failed",
					zap.String("restaurant_id", rid), zap.String("table_id", tid), zap.Error(err))
				continue
			}
			if err := h.write(conn, cart); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (h *CartWSHandler) write(conn *websocket.Conn, cart usecase.CartResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(cartMessage{Type: "cart_updated", Cart: cart})
}
