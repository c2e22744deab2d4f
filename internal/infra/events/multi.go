package events

import (
	"context"
	"errors"

	"tableorder/internal/usecase"
)

// MultiPublisher は全publisherへ配る。1つ失敗しても残りには送る。
type MultiPublisher []usecase.OrderEventPublisher

func (m MultiPublisher) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// 設定が無いとき用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, usecase.OrderEvent) error { return nil }

var (
	_ usecase.OrderEventPublisher = MultiPublisher(nil)
	_ usecase.OrderEventPublisher = NopPublisher{}
)
