package infrastructure

import (
	"context"
	"sync"
	"time"

	"nexus-shipping/internal/service/shipping/domain"
)

// MemoryShipmentRepository 是 ShipmentRepository 的内存实现，用于本地运行和测试。
// 读写都经过拷贝，调用方看不到部分写入。
type MemoryShipmentRepository struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*domain.Shipment
	byTracking map[string]int64
	now        func() time.Time
}

func NewMemoryShipmentRepository() *MemoryShipmentRepository {
	return &MemoryShipmentRepository{
		byID:       make(map[int64]*domain.Shipment),
		byTracking: make(map[string]int64),
		now:        time.Now,
	}
}

// WithClock 替换 UpdatedAt 使用的时钟
func (r *MemoryShipmentRepository) WithClock(now func() time.Time) *MemoryShipmentRepository {
	r.now = now
	return r
}

func (r *MemoryShipmentRepository) Create(_ context.Context, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byTracking[shipment.TrackingNo]; taken {
		return domain.ErrTrackingNoTaken
	}
	r.nextID++
	now := r.now()
	shipment.ID = r.nextID
	if shipment.CreatedAt.IsZero() {
		shipment.CreatedAt = now
	}
	shipment.UpdatedAt = now

	r.byID[shipment.ID] = shipment.Clone()
	r.byTracking[shipment.TrackingNo] = shipment.ID
	return nil
}

func (r *MemoryShipmentRepository) FindByID(_ context.Context, id int64) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryShipmentRepository) FindByTrackingNo(_ context.Context, trackingNo string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byTracking[trackingNo]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryShipmentRepository) Update(_ context.Context, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[shipment.ID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	if existing.TrackingNo != shipment.TrackingNo {
		if _, taken := r.byTracking[shipment.TrackingNo]; taken {
			return domain.ErrTrackingNoTaken
		}
		delete(r.byTracking, existing.TrackingNo)
		r.byTracking[shipment.TrackingNo] = shipment.ID
	}
	shipment.UpdatedAt = r.now()
	r.byID[shipment.ID] = shipment.Clone()
	return nil
}

func (r *MemoryShipmentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[id]; ok {
		delete(r.byTracking, s.TrackingNo)
		delete(r.byID, id)
	}
	return nil
}

// Ping 内存实现总是就绪
func (r *MemoryShipmentRepository) Ping(context.Context) error { return nil }

// Len 返回当前记录数
func (r *MemoryShipmentRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
