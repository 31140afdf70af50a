// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SagaTotal 按 saga 名称和结果统计执行次数
	SagaTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_saga_total",
		Help: "Number of shipment saga executions by saga and outcome.",
	}, []string{"saga", "outcome"})

	// CompensationsTotal 统计补偿动作
	CompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_compensations_total",
		Help: "Number of compensating actions executed by result.",
	}, []string{"result"})

	// InventoryAdjustFailures 统计逐项库存扣减的失败次数
	InventoryAdjustFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipping_inventory_adjust_failures_total",
		Help: "Number of per-item inventory adjustments that did not succeed.",
	})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_events_consumed_total",
		Help: "Number of shipment events consumed by type and outcome.",
	}, []string{"type", "outcome"})

	// HealthStatus 1 表示健康
	HealthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipping_service_health_status",
		Help: "Health status of the shipping service, 1 if healthy.",
	})
)

// ObserveSaga 记录一次 saga 的结果
func ObserveSaga(saga, outcome string) {
	SagaTotal.WithLabelValues(saga, outcome).Inc()
}
