package storage

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/shop-ledger/internal/port"
)

const stockKeyPrefix = "stock:"

var _ port.StockCache = (*RedisAdapter)(nil)

// The script only decrements when the counter exists and covers the request,
// so the check and the draw-down are one atomic step on the Redis side. An
// absent counter returns -1; the caller must treat that as unknown, not as
// insufficient, because the database is the stock authority.
var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return -1
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// Incrementing an absent counter would create one that starts from zero and
// undercounts the database, so the restore applies only when the key exists.
var incrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 1 then
	redis.call('INCRBY', key, quantity)
	return 1
end

return 0
`)

// RedisAdapter mirrors product stock counters so the durable backend can
// shed oversized orders without opening a transaction.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(productID int64) string {
	return stockKeyPrefix + strconv.FormatInt(productID, 10)
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, productID int64, quantity int64) (port.StockDecision, error) {
	result, err := decrementStockScript.Run(ctx, r.client, []string{stockKey(productID)}, quantity).Int()
	if err != nil {
		return port.StockUnknown, err
	}

	switch result {
	case 1:
		return port.StockGranted, nil
	case 0:
		return port.StockDenied, nil
	default:
		return port.StockUnknown, nil
	}
}

func (r *RedisAdapter) IncrementStock(ctx context.Context, productID int64, quantity int64) error {
	return incrementStockScript.Run(ctx, r.client, []string{stockKey(productID)}, quantity).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID int64, quantity int64) error {
	return r.client.Set(ctx, stockKey(productID), quantity, 0).Err()
}

func (r *RedisAdapter) InvalidateStock(ctx context.Context, productID int64) error {
	return r.client.Del(ctx, stockKey(productID)).Err()
}
