package inventory

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/redis"
	"nexus-shipping/internal/service/shipping/domain"
)

const (
	adjustScriptName = "inventory_adjust"
	getScriptName    = "inventory_get"
)

// RedisStore 把库存放在 redis 中，扣减通过 Lua 脚本原子完成。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建实例并预加载脚本
func NewRedisStore(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	if err := client.LoadScriptFromContent(ctx, adjustScriptName, adjustScript); err != nil {
		return nil, errors.Wrap(err, "load inventory adjust script")
	}
	if err := client.LoadScriptFromContent(ctx, getScriptName, getScript); err != nil {
		return nil, errors.Wrap(err, "load inventory get script")
	}
	return &RedisStore{client: client}, nil
}

func itemKey(itemID int64) string {
	return fmt.Sprintf("inventory:item:{%d}", itemID)
}

func (s *RedisStore) Get(ctx context.Context, itemID int64) (domain.InventoryRecord, error) {
	res, err := s.client.RunScript(ctx, getScriptName, []string{itemKey(itemID)}, DefaultQuantity)
	if err != nil {
		return domain.ZeroInventory(itemID), errors.Wrapf(err, "get inventory of item %d", itemID)
	}
	return toRecord(itemID, res)
}

func (s *RedisStore) Adjust(ctx context.Context, itemID int64, delta int) (domain.InventoryRecord, error) {
	res, err := s.client.RunScript(ctx, adjustScriptName, []string{itemKey(itemID)}, DefaultQuantity, delta)
	if err != nil {
		return domain.ZeroInventory(itemID), errors.Wrapf(err, "adjust inventory of item %d", itemID)
	}
	return toRecord(itemID, res)
}

func toRecord(itemID int64, res interface{}) (domain.InventoryRecord, error) {
	qty, ok := res.(int64)
	if !ok {
		return domain.ZeroInventory(itemID), errors.Errorf("unexpected result type from inventory script: %T", res)
	}
	return domain.InventoryRecord{ItemID: itemID, AvailableQty: int(qty)}, nil
}

// KEYS[1]: 商品库存 key
// ARGV[1]: 初始库存
var getScript = `
local qty = redis.call('GET', KEYS[1])
if not qty then
  return tonumber(ARGV[1])
end
return tonumber(qty)
`

// KEYS[1]: 商品库存 key
// ARGV[1]: 初始库存
// ARGV[2]: 扣减量，负数表示回补
var adjustScript = `
local qty = redis.call('GET', KEYS[1])
if not qty then
  qty = tonumber(ARGV[1])
else
  qty = tonumber(qty)
end
local n = qty - tonumber(ARGV[2])
if n < 0 then
  n = 0
end
redis.call('SET', KEYS[1], n)
return n
`
