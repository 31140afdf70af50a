package inventory

import (
	"context"
	"sync"

	"nexus-shipping/internal/service/shipping/domain"
)

// MemoryStore 是进程内库存，单个互斥锁保护全部商品。
type MemoryStore struct {
	mu      sync.Mutex
	qty     map[int64]int
	initial int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{qty: make(map[int64]int), initial: DefaultQuantity}
}

// Set 直接写入某个商品的库存，用于预置数据
func (s *MemoryStore) Set(itemID int64, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qty[itemID] = qty
}

func (s *MemoryStore) Get(_ context.Context, itemID int64) (domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.InventoryRecord{ItemID: itemID, AvailableQty: s.current(itemID)}, nil
}

func (s *MemoryStore) Adjust(_ context.Context, itemID int64, delta int) (domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := clamp(s.current(itemID), delta)
	s.qty[itemID] = n
	return domain.InventoryRecord{ItemID: itemID, AvailableQty: n}, nil
}

func (s *MemoryStore) current(itemID int64) int {
	if q, ok := s.qty[itemID]; ok {
		return q
	}
	return s.initial
}
