package port

import (
	"context"
	"nexus-shipping/internal/service/shipping/domain"
)

// InventoryGateway 是库存服务的出站端口。
type InventoryGateway interface {
	// FetchInventory 批量查询库存，返回结果与入参等长、同序。
	// 单个商品失败时该位置为零库存占位记录，不会让整批失败。
	FetchInventory(ctx context.Context, itemIDs []int64) []Result[domain.InventoryRecord]

	// AdjustInventory 调整库存。delta 为正表示扣减(消耗)，为负表示回补。
	AdjustInventory(ctx context.Context, itemID int64, delta int) Result[domain.InventoryRecord]
}
