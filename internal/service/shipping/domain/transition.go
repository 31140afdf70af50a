// internal/service/shipping/domain/transition.go
package domain

import "time"

// StatusChange 是一次状态更新请求，时间戳可随更新一起提供。
type StatusChange struct {
	Status      Status
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// ValidateTransition 校验从 current 迁移到 change.Status 是否合法。
// 只检查时间戳的共现规则，不限制状态之间的先后顺序。
func ValidateTransition(current *Shipment, change StatusChange) error {
	if change.Status.IsZero() {
		return NewError(KindInvalidStatus, "shipping status is required")
	}

	shippedAt := change.ShippedAt
	deliveredAt := change.DeliveredAt
	if current != nil {
		if shippedAt == nil {
			shippedAt = current.ShippedAt
		}
		if deliveredAt == nil {
			deliveredAt = current.DeliveredAt
		}
	}

	if change.DeliveredAt != nil && shippedAt == nil {
		return NewError(KindMissingTimestamp, "cannot set delivered_at without shipped_at")
	}

	switch change.Status {
	case StatusShipped:
		if shippedAt == nil {
			return NewError(KindMissingTimestamp, "shipped status requires shipped_at timestamp")
		}
	case StatusDelivered:
		if deliveredAt == nil {
			return NewError(KindMissingTimestamp, "delivered status requires delivered_at timestamp")
		}
		if shippedAt == nil {
			return NewError(KindMissingTimestamp, "delivered status requires shipped_at timestamp")
		}
	}
	return nil
}

// TransitionPolicy 是时间戳规则之外可配置的状态迁移守卫。
type TransitionPolicy interface {
	Allow(current, proposed Status) (bool, error)
}

// PermissivePolicy 允许任意迁移。
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(Status, Status) (bool, error) { return true, nil }
