package adapter

import (
	"context"
	"sync"

	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
)

// SyncCall 记录一次对订单服务的状态同步
type SyncCall struct {
	OrderID int64
	Status  domain.Status
}

// MockOrderGateway 是不依赖订单服务的 port.OrderGateway 实现。
// 默认任何订单都是 CONFIRMED / PAID，包含两个商品，状态同步总是成功。
type MockOrderGateway struct {
	mu        sync.Mutex
	orders    map[int64]port.Result[*domain.OrderSnapshot]
	syncFails map[int64]bool
	calls     []SyncCall
}

func NewMockOrderGateway() *MockOrderGateway {
	return &MockOrderGateway{
		orders:    make(map[int64]port.Result[*domain.OrderSnapshot]),
		syncFails: make(map[int64]bool),
	}
}

// DefaultMockOrder 返回 mock 模式下的订单快照
func DefaultMockOrder(orderID int64) *domain.OrderSnapshot {
	return &domain.OrderSnapshot{
		OrderID:       orderID,
		OrderStatus:   domain.OrderStatusConfirmed,
		PaymentStatus: "PAID",
		Items: []domain.OrderItem{
			domain.NewOrderItem(1, 2),
			domain.NewOrderItem(2, 1),
		},
	}
}

// SetOrder 覆盖某个订单的快照
func (g *MockOrderGateway) SetOrder(snapshot *domain.OrderSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[snapshot.OrderID] = port.Success(snapshot)
}

// SetUnavailable 让某个订单的查询失败
func (g *MockOrderGateway) SetUnavailable(orderID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID] = port.Failure[*domain.OrderSnapshot](nil, port.ErrUnavailable)
}

// FailSync 让某个订单的状态同步返回失败
func (g *MockOrderGateway) FailSync(orderID int64, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.syncFails[orderID] = fail
}

func (g *MockOrderGateway) FetchOrder(_ context.Context, orderID int64) port.Result[*domain.OrderSnapshot] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.orders[orderID]; ok {
		if r.OK() {
			c := *r.Value
			c.Items = append([]domain.OrderItem(nil), r.Value.Items...)
			return port.Success(&c)
		}
		return r
	}
	return port.Success(DefaultMockOrder(orderID))
}

func (g *MockOrderGateway) SetShippingStatus(_ context.Context, orderID int64, status domain.Status) port.Ack {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, SyncCall{OrderID: orderID, Status: status})
	if g.syncFails[orderID] {
		return port.NotAcked(port.ErrRejected)
	}
	return port.Acked()
}

// SyncCalls 返回到目前为止的状态同步调用
func (g *MockOrderGateway) SyncCalls() []SyncCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SyncCall(nil), g.calls...)
}
