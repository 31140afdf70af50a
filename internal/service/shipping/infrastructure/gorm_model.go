package infrastructure

import "time"

// ShipmentModel 对应数据库中的 shipments 表
type ShipmentModel struct {
	ID          int64      `gorm:"column:shipment_id;primaryKey;autoIncrement"`
	OrderID     int64      `gorm:"column:order_id;not null;index"`
	Carrier     string     `gorm:"column:carrier;size:100;not null"`
	TrackingNo  string     `gorm:"column:tracking_no;size:100;not null;uniqueIndex"`
	Status      string     `gorm:"column:status;size:20;not null;default:PENDING"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null"`
}

// TableName 指定 GORM 应该使用的表名
func (ShipmentModel) TableName() string {
	return "shipments"
}
