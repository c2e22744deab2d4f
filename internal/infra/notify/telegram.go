package notify

import (
	"context"
	"fmt"
	"strings"

	"tableorder/internal/repository"
	"tableorder/internal/usecase"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// KitchenNotifier は新規注文を店舗のTelegramチャットへ送る
type KitchenNotifier struct {
	bot         messageSender
	restaurants repository.RestaurantRepository
	log         *zap.Logger
}

func NewKitchenNotifier(token string, restaurants repository.RestaurantRepository, log *zap.Logger) (*KitchenNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	return newKitchenNotifier(api, restaurants, log), nil
}

func newKitchenNotifier(bot messageSender, restaurants repository.RestaurantRepository, log *zap.Logger) *KitchenNotifier {
	return &KitchenNotifier{bot: bot, restaurants: restaurants, log: log}
}

func (n *KitchenNotifier) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	// 厨房が知りたいのは新規注文だけ（精算済みの通知は送らない）
	if ev.Type != usecase.OrderEventPlaced && ev.Type != usecase.OrderEventPaid {
		return nil
	}

	r, err := n.restaurants.FindByID(ctx, ev.RestaurantID)
	if err != nil {
		return fmt.Errorf("telegram: find restaurant: %w", err)
	}
	if r.TelegramChatID == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(r.TelegramChatID, kitchenText(ev))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	n.log.Debug("kitchen notified",
		zap.String("order_id", ev.OrderID),
		zap.Int64("chat_id", r.TelegramChatID))
	return nil
}

func kitchenText(ev usecase.OrderEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%d (table %s)", ev.OrderNumber, ev.TableID)
	if ev.Type == usecase.OrderEventPaid {
		b.WriteString(" [PAID]")
	}
	b.WriteString("\n")
	for _, it := range ev.Items {
		fmt.Fprintf(&b, "%d x %s\n", it.Quantity, it.Name)
	}
	fmt.Fprintf(&b, "Total: %d.%02d", ev.Total/100, ev.Total%100)
	return b.String()
}

var _ usecase.OrderEventPublisher = (*KitchenNotifier)(nil)
