package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gigpay/internal/models"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "balance:"

// BalanceCache caches per-user balance rows. Writers must invalidate
// after every committed mutation; a stale entry only survives until
// the TTL otherwise.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID uint) string {
	return fmt.Sprintf("%s%d", balanceKeyPrefix, userID)
}

func (c *BalanceCache) GetBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var balance models.Balance
	if err := json.Unmarshal([]byte(val), &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *BalanceCache) SetBalance(ctx context.Context, balance *models.Balance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, balanceKey(balance.UserID), data, c.ttl).Err()
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, balanceKey(userID)).Err()
}

func (c *BalanceCache) Close() error {
	return c.client.Close()
}
