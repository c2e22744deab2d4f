package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tableorder/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// 世代が一致したときだけスナップショットを書く
var setIfVersionScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if not cur then cur = '0' end
if cur ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// スナップショットを消して世代を進める
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local v = redis.call('INCR', KEYS[2])
if tonumber(ARGV[1]) > 0 then redis.call('PEXPIRE', KEYS[2], ARGV[1]) end
return v
`)

// CartStore はテーブルカートのスナップショットと変更通知をRedisで持つ。
// キーとチャンネルは同じ名前（cart:<restaurant>:<table>）。世代は cart:<restaurant>:<table>:v。
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DI
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func CartKey(restaurantID string, tableID string) string {
	return fmt.Sprintf("cart:%s:%s", restaurantID, tableID)
}

func cartVersionKey(restaurantID string, tableID string) string {
	return CartKey(restaurantID, tableID) + ":v"
}

func (s *CartStore) Get(ctx context.Context, restaurantID string, tableID string) (usecase.CartResponse, bool, error) {
	data, err := s.client.Get(ctx, CartKey(restaurantID, tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.CartResponse{}, false, nil
	}
	if err != nil {
		return usecase.CartResponse{}, false, fmt.Errorf("redis get: %w", err)
	}

	var out usecase.CartResponse
	if err := json.Unmarshal(data, &out); err != nil {
		// 壊れたスナップショットはミス扱い
		return usecase.CartResponse{}, false, nil
	}
	return out, true, nil
}

func (s *CartStore) Version(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	v, err := s.client.Get(ctx, cartVersionKey(restaurantID, tableID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return v, nil
}

func (s *CartStore) SetIfVersion(ctx context.Context, restaurantID string, tableID string, version int64, cart usecase.CartResponse) (bool, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}
	keys := []string{CartKey(restaurantID, tableID), cartVersionKey(restaurantID, tableID)}
	n, err := setIfVersionScript.Run(ctx, s.client, keys, strconv.FormatInt(version, 10), data, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return n == 1, nil
}

func (s *CartStore) Invalidate(ctx context.Context, restaurantID string, tableID string) (int64, error) {
	keys := []string{CartKey(restaurantID, tableID), cartVersionKey(restaurantID, tableID)}
	// 世代はスナップショットより長く残す
	v, err := invalidateScript.Run(ctx, s.client, keys, (2 * s.ttl).Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis invalidate: %w", err)
	}
	return v, nil
}

func (s *CartStore) Publish(ctx context.Context, restaurantID string, tableID string, event string) error {
	if err := s.client.Publish(ctx, CartKey(restaurantID, tableID), event).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe はテーブルのチャンネルを購読する。closeで購読を終える。
// Redisの購読確認を受け取ってから戻るので、戻った後のPublishは取りこぼさない。
func (s *CartStore) Subscribe(ctx context.Context, restaurantID string, tableID string) (<-chan string, func() error, error) {
	pubsub := s.client.Subscribe(ctx, CartKey(restaurantID, tableID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe cart channel: %w", err)
	}
	out := make(chan string, 8)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close, nil
}

// Redis未設定のとき
type NopCartStore struct{}

func (NopCartStore) Get(context.Context, string, string) (usecase.CartResponse, bool, error) {
	return usecase.CartResponse{}, false, nil
}
func (NopCartStore) Version(context.Context, string, string) (int64, error) { return 0, nil }
func (NopCartStore) SetIfVersion(context.Context, string, string, int64, usecase.CartResponse) (bool, error) {
	return false, nil
}
func (NopCartStore) Invalidate(context.Context, string, string) (int64, error) { return 0, nil }
func (NopCartStore) Publish(context.Context, string, string, string) error    { return nil }

// 通知が来ないのでWebSocketは初回の送信のみになる
func (NopCartStore) Subscribe(ctx context.Context, _ string, _ string) (<-chan string, func() error, error) {
	ch := make(chan string)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		close(ch)
	}()
	var once sync.Once
	return ch, func() error {
		once.Do(func() { close(stop) })
		return nil
	}, nil
}

var (
	_ usecase.CartCache      = (*CartStore)(nil)
	_ usecase.CartNotifier   = (*CartStore)(nil)
	_ usecase.CartSubscriber = (*CartStore)(nil)
	_ usecase.CartCache      = NopCartStore{}
	_ usecase.CartSubscriber = NopCartStore{}
)
