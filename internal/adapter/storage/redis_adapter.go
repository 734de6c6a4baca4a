package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/giftpay/internal/core/domain"
)

const (
	giftsKey        = "catalog:gifts"
	defaultGiftsTTL = 5 * time.Minute
)

type RedisAdapter struct {
	client   *redis.Client
	giftsTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, giftsTTL time.Duration) *RedisAdapter {
	if giftsTTL <= 0 {
		giftsTTL = defaultGiftsTTL
	}
	return &RedisAdapter{client: client, giftsTTL: giftsTTL}
}

func (r *RedisAdapter) GetGifts(ctx context.Context) ([]domain.Gift, bool, error) {
	raw, err := r.client.Get(ctx, giftsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var gifts []domain.Gift
	if err := json.Unmarshal(raw, &gifts); err != nil {
		return nil, false, fmt.Errorf("decode cached gifts: %w", err)
	}
	return gifts, true, nil
}

func (r *RedisAdapter) SetGifts(ctx context.Context, gifts []domain.Gift) error {
	raw, err := json.Marshal(gifts)
	if err != nil {
		return fmt.Errorf("encode gifts: %w", err)
	}
	return r.client.Set(ctx, giftsKey, raw, r.giftsTTL).Err()
}

func (r *RedisAdapter) InvalidateGifts(ctx context.Context) error {
	return r.client.Del(ctx, giftsKey).Err()
}
