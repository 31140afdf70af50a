package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-shipping/internal/service/shipping/domain"
)

func newShipment(t *testing.T, orderID int64, trackingNo string) *domain.Shipment {
	t.Helper()
	s, err := domain.NewShipment(orderID, "DHL", trackingNo, time.Now())
	require.NoError(t, err)
	return s
}

func TestMemoryRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()

	s := newShipment(t, 42, "TRK-1")
	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, int64(1), s.ID)

	byID, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, byID)

	byTracking, err := repo.FindByTrackingNo(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byTracking.ID)

	_, err = repo.FindByID(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = repo.FindByTrackingNo(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMemoryRepositoryTrackingNoUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()

	require.NoError(t, repo.Create(ctx, newShipment(t, 1, "TRK-1")))
	err := repo.Create(ctx, newShipment(t, 2, "TRK-1"))
	assert.ErrorIs(t, err, domain.ErrTrackingNoTaken)
	assert.Equal(t, 1, repo.Len())

	second := newShipment(t, 2, "TRK-2")
	require.NoError(t, repo.Create(ctx, second))
	second.TrackingNo = "TRK-1"
	assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrTrackingNoTaken)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()

	s := newShipment(t, 42, "TRK-1")
	require.NoError(t, repo.Create(ctx, s))

	s.Carrier = "mutated"
	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "DHL", got.Carrier)

	got.Status = domain.StatusFailed
	again, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
}

func TestMemoryRepositoryUpdateRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryShipmentRepository().WithClock(func() time.Time { return clock })

	s := newShipment(t, 42, "TRK-1")
	require.NoError(t, repo.Create(ctx, s))

	clock = clock.Add(time.Hour)
	s.MarkAsShipped(clock.Add(-time.Minute))
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.Equal(t, domain.StatusShipped, got.Status)

	missing := &domain.Shipment{ID: 404, TrackingNo: "X", Status: domain.StatusPending}
	assert.True(t, errors.Is(repo.Update(ctx, missing), domain.ErrNotFound))
}

func TestMemoryRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()

	s := newShipment(t, 42, "TRK-1")
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.Delete(ctx, s.ID))
	require.NoError(t, repo.Delete(ctx, s.ID), "deleting twice is a no-op")

	_, err := repo.FindByTrackingNo(ctx, "TRK-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, repo.Create(ctx, newShipment(t, 43, "TRK-1")), "tracking number is free again")
}

func TestMemoryRepositoryConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, _ := domain.NewShipment(1, "DHL", "SAME", time.Now())
			if repo.Create(ctx, s) == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, repo.Len())
}
