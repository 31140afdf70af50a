package main

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"

	"nexus-shipping/internal/service/shipping/domain"
)

// seedTimeLayout 是种子文件中的时间格式
const seedTimeLayout = "2006-01-02 15:04:05"

var requiredColumns = []string{"tracking_no", "order_id", "carrier", "status"}

// Seed 逐行读取 CSV 并写入仓储。无法满足运单不变量的行会被跳过。
func Seed(ctx context.Context, repo domain.ShipmentRepository, r io.Reader) (created, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, errors.Wrap(err, "read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return 0, 0, errors.Errorf("csv is missing column %q", name)
		}
	}

	now := time.Now()
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, skipped, errors.Wrapf(err, "read csv line %d", line)
		}

		shipment, err := parseRow(cols, record, now)
		if err != nil {
			zlog.Warn().Err(err).Int("line", line).Msg("skipping seed row")
			skipped++
			continue
		}
		if err := repo.Create(ctx, shipment); err != nil {
			if errors.Is(err, domain.ErrTrackingNoTaken) {
				zlog.Warn().Str("tracking_no", shipment.TrackingNo).Int("line", line).Msg("skipping duplicate tracking number")
				skipped++
				continue
			}
			return created, skipped, errors.Wrapf(err, "create shipment at line %d", line)
		}
		zlog.Info().Str("tracking_no", shipment.TrackingNo).Msg("Created shipment")
		created++
	}
	return created, skipped, nil
}

func parseRow(cols map[string]int, record []string, now time.Time) (*domain.Shipment, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	orderID, err := strconv.ParseInt(get("order_id"), 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid order_id %q", get("order_id"))
	}
	shipment, err := domain.NewShipment(orderID, get("carrier"), get("tracking_no"), now)
	if err != nil {
		return nil, err
	}

	// 未识别的状态回落为 PENDING
	if status, err := domain.ParseStatus(get("status")); err == nil {
		shipment.Status = status
	}
	shipment.ShippedAt = parseTime(get("shipped_at"))
	shipment.DeliveredAt = parseTime(get("delivered_at"))

	if err := shipment.CheckInvariants(); err != nil {
		return nil, err
	}
	return shipment, nil
}

func parseTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(seedTimeLayout, v)
	if err != nil {
		return nil
	}
	return &t
}
