// internal/service/shipping/domain/inventory.go
package domain

// InventoryRecord 是库存服务中某个商品的可用数量。
type InventoryRecord struct {
	ItemID       int64 `json:"item_id"`
	AvailableQty int   `json:"available_qty"`
}

// ZeroInventory 是调用失败时的零库存占位记录。
func ZeroInventory(itemID int64) InventoryRecord {
	return InventoryRecord{ItemID: itemID}
}
