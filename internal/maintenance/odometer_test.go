package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRaiseOdometerIfNeeded(t *testing.T) {
	v := &models.Vehicle{CurrentKm: 10000}

	assert.True(t, RaiseOdometerIfNeeded(v, 12000))
	assert.Equal(t, 12000, v.CurrentKm)

	assert.False(t, RaiseOdometerIfNeeded(v, 9000))
	assert.Equal(t, 12000, v.CurrentKm)

	assert.False(t, RaiseOdometerIfNeeded(v, 12000))
	assert.Equal(t, 12000, v.CurrentKm)
}

func TestHighestKm(t *testing.T) {
	assert.Equal(t, 0, HighestKm(nil))
	assert.Equal(t, 30000, HighestKm([]models.MaintenanceLog{{KmPerformed: 10000}, {KmPerformed: 30000}, {KmPerformed: 20000}}))
}

func TestNextDueKm(t *testing.T) {
	assert.Equal(t, 22000, NextDueKm(12000, &models.MaintenanceType{DefaultIntervalKm: intPtr(10000)}))
	assert.Equal(t, 17000, NextDueKm(12000, &models.MaintenanceType{DefaultIntervalKm: intPtr(5000)}))
	assert.Equal(t, 22000, NextDueKm(12000, &models.MaintenanceType{}))
	assert.Equal(t, 22000, NextDueKm(12000, nil))
}

func TestDefaultTypes(t *testing.T) {
	owner := primitive.NewObjectID()

	types := DefaultTypes(owner)

	assert.Len(t, types, 10)
	seen := map[string]bool{}
	for _, mt := range types {
		assert.Equal(t, owner, mt.UserID)
		assert.True(t, mt.ID.IsZero())
		assert.NotNil(t, mt.DefaultIntervalKm)
		assert.NotNil(t, mt.DefaultIntervalMonths)
		assert.False(t, seen[mt.Name], "duplicate default %s", mt.Name)
		seen[mt.Name] = true
	}
	// each entry gets its own interval pointers
	*types[0].DefaultIntervalKm = 1
	assert.NotEqual(t, 1, *types[1].DefaultIntervalKm)
}
