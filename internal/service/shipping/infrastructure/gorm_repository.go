package infrastructure

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"nexus-shipping/internal/pkg/database"
	"nexus-shipping/internal/service/shipping/domain"
)

// mysqlDuplicateEntry 是 MySQL 唯一键冲突的错误码
const mysqlDuplicateEntry = 1062

// GormShipmentRepository 是 ShipmentRepository 的 GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository 创建一个新的 GORM 仓储实例
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// AutoMigrate 创建或更新 shipments 表
func (r *GormShipmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ShipmentModel{})
}

func (r *GormShipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	model := FromDomainShipment(shipment)
	model.ID = 0
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrTrackingNoTaken
		}
		return errors.Wrap(err, "insert shipment")
	}
	shipment.ID = model.ID
	shipment.CreatedAt = model.CreatedAt
	shipment.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormShipmentRepository) FindByID(ctx context.Context, id int64) (*domain.Shipment, error) {
	return r.first(ctx, "shipment_id = ?", id)
}

func (r *GormShipmentRepository) FindByTrackingNo(ctx context.Context, trackingNo string) (*domain.Shipment, error) {
	return r.first(ctx, "tracking_no = ?", trackingNo)
}

func (r *GormShipmentRepository) first(ctx context.Context, query string, arg any) (*domain.Shipment, error) {
	var model ShipmentModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, errors.Wrap(err, "query shipment")
	}
	return ToDomainShipment(&model)
}

// Update 用单条 UPDATE 语句写入全部可变字段
func (r *GormShipmentRepository) Update(ctx context.Context, shipment *domain.Shipment) error {
	now := time.Now()
	updateData := map[string]interface{}{
		"order_id":     shipment.OrderID,
		"carrier":      shipment.Carrier,
		"tracking_no":  shipment.TrackingNo,
		"status":       shipment.Status.String(),
		"shipped_at":   shipment.ShippedAt,
		"delivered_at": shipment.DeliveredAt,
		"updated_at":   now,
	}
	res := r.db.WithContext(ctx).Model(&ShipmentModel{}).Where("shipment_id = ?", shipment.ID).Updates(updateData)
	if res.Error != nil {
		if isDuplicateEntry(res.Error) {
			return domain.ErrTrackingNoTaken
		}
		return errors.Wrap(res.Error, "update shipment")
	}
	// 连接开启了 clientFoundRows，RowsAffected 是匹配行数
	if res.RowsAffected == 0 {
		return domain.ErrShipmentNotFound
	}
	shipment.UpdatedAt = now
	return nil
}

func (r *GormShipmentRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&ShipmentModel{}, "shipment_id = ?", id).Error; err != nil {
		return errors.Wrap(err, "delete shipment")
	}
	return nil
}

// Truncate 清空运单表，仅供初始化数据使用
func (r *GormShipmentRepository) Truncate(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ShipmentModel{}).Error
}

// Ping 供 readiness 探针检查数据库连通性
func (r *GormShipmentRepository) Ping(ctx context.Context) error {
	return database.Ping(ctx, r.db)
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
