package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tableorder/internal/usecase"

	amqp "github.com/rabbitmq/amqp091-go"
)

// キュー名はイベント種別と同じ
var orderQueues = []string{
	usecase.OrderEventPlaced,
	usecase.OrderEventPaid,
	usecase.OrderEventSettled,
	usecase.OrderEventStatusChanged,
}

// AMQPPublisher は注文イベントをRabbitMQのキューへ流す
type AMQPPublisher struct {
	mu sync.Mutex // amqp.Channelは並行publish不可
	ch *amqp.Channel
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// publish時にキュー未作成で落ちないよう先に宣言
	for _, q := range orderQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		pubCtx,
		"",      // default exchange
		ev.Type, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

var _ usecase.OrderEventPublisher = (*AMQPPublisher)(nil)
