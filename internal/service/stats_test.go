package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestStats_TwelveBucketsAcrossVehicles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.vehicle(t, 0)
	bike := f.vehicle(t, 0)
	oil := f.typeNamed(t, "Engine Oil Change")

	record := func(vehicleID string, date time.Time, service, product float64) {
		_, err := f.svc.RecordMaintenance(ctx, f.uid(), vehicleID, models.MaintenanceLogRequest{
			MaintenanceTypeID: oil.ID.Hex(), KmPerformed: 100, DatePerformed: date,
			ServiceCost: floatPtr(service), ProductCost: floatPtr(product),
		})
		require.NoError(t, err)
	}
	record(car.ID.Hex(), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 10, 5)
	record(bike.ID.Hex(), time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), 1, 1)
	record(car.ID.Hex(), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 7, 0)
	record(car.ID.Hex(), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 99, 99)

	stats, err := f.svc.Stats(ctx, f.uid())
	require.NoError(t, err)
	require.Len(t, stats, 12)

	assert.Equal(t, "2024-02", stats[0].SortKey)
	assert.Equal(t, "02/2024", stats[0].Month)
	assert.Equal(t, 7.0, stats[0].Total)
	last := stats[11]
	assert.Equal(t, "2025-01", last.SortKey)
	assert.Equal(t, 11.0, last.ServiceCost)
	assert.Equal(t, 6.0, last.ProductCost)
	assert.Equal(t, 17.0, last.Total)
	assert.Equal(t, 2, last.Count)
	for i := 1; i < len(stats); i++ {
		assert.Less(t, stats[i-1].SortKey, stats[i].SortKey)
	}
}

func TestStats_NoVehicles(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.Stats(context.Background(), f.uid())
	require.NoError(t, err)
	assert.Len(t, stats, 12)
	for _, b := range stats {
		assert.Zero(t, b.Total)
	}
}

func TestDueDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, 20000)
	oil := f.typeNamed(t, "Engine Oil Change")

	_, err := f.svc.RecordMaintenance(ctx, f.uid(), v.ID.Hex(), models.MaintenanceLogRequest{
		MaintenanceTypeID: oil.ID.Hex(), KmPerformed: 10000, DatePerformed: fixedNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)

	// an account with nothing due gets nothing
	_, err = f.svc.Register(ctx, models.RegisterRequest{Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	f.notifier.sent = nil
	queued, err := f.svc.DueDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	require.Len(t, f.notifier.sent, 1)

	n := f.notifier.sent[0]
	assert.Equal(t, "ana@example.com", n.Email)
	assert.Equal(t, "Maintenance due", n.Subject)
	assert.True(t, strings.Contains(n.Message, "Engine Oil Change, due by distance (next: 20000km)"), n.Message)
}
