// internal/service/shipping/domain/repository.go
package domain

import "context"

// ShipmentRepository 定义了运单聚合的持久化接口。
// 单条记录的创建、更新、删除必须是原子的。
type ShipmentRepository interface {
	// Create 插入新运单并回填 ID。运单号冲突时返回 ErrTrackingNoTaken。
	Create(ctx context.Context, shipment *Shipment) error

	// FindByID 不存在时返回 ErrShipmentNotFound。
	FindByID(ctx context.Context, id int64) (*Shipment, error)

	// FindByTrackingNo 不存在时返回 ErrShipmentNotFound。
	FindByTrackingNo(ctx context.Context, trackingNo string) (*Shipment, error)

	// Update 整条覆盖写入，并刷新 UpdatedAt。
	Update(ctx context.Context, shipment *Shipment) error

	// Delete 删除运单，记录不存在时视为成功。
	Delete(ctx context.Context, id int64) error
}
