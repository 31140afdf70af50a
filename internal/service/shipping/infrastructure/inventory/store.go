// internal/service/shipping/infrastructure/inventory/store.go
package inventory

import (
	"context"

	"nexus-shipping/internal/service/shipping/domain"
)

// DefaultQuantity 是未见过的商品的初始库存
const DefaultQuantity = 50

// Store 是 mock 库存服务背后的存储。Adjust 的 delta 为正表示扣减，结果不低于零。
type Store interface {
	Get(ctx context.Context, itemID int64) (domain.InventoryRecord, error)
	Adjust(ctx context.Context, itemID int64, delta int) (domain.InventoryRecord, error)
}

func clamp(qty, delta int) int {
	if n := qty - delta; n > 0 {
		return n
	}
	return 0
}
