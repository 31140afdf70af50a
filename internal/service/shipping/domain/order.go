// internal/service/shipping/domain/order.go
package domain

// OrderStatus 是订单服务侧的订单状态，本系统只读。
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// OrderItem 中的指针字段用于区分 JSON null 与零值。
type OrderItem struct {
	ItemID   *int64 `json:"item_id"`
	Quantity *int   `json:"quantity"`
}

// OrderSnapshot 是每次 Saga 执行时从订单服务拉取的订单快照，不在本地持久化。
type OrderSnapshot struct {
	OrderID       int64       `json:"order_id"`
	OrderStatus   OrderStatus `json:"order_status"`
	PaymentStatus string      `json:"payment_status"`
	Items         []OrderItem `json:"items"`
}

// Confirmed 表示订单已确认，可以发货。
func (o *OrderSnapshot) Confirmed() bool {
	return o != nil && o.OrderStatus == OrderStatusConfirmed
}

// NewOrderItem 便于构造非空明细。
func NewOrderItem(itemID int64, quantity int) OrderItem {
	return OrderItem{ItemID: &itemID, Quantity: &quantity}
}
