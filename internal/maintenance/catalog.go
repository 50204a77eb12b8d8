package maintenance

import (
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalogEntry struct {
	name   string
	km     int
	months int
}

var defaultCatalog = []catalogEntry{
	{"Engine Oil Change", 10000, 12},
	{"Oil Filter", 10000, 12},
	{"Air Filter", 20000, 24},
	{"Fuel Filter", 20000, 24},
	{"Brake Pads", 30000, 36},
	{"Brake Fluid", 40000, 24},
	{"Coolant", 40000, 24},
	{"Gearbox Oil (Manual)", 100000, 60},
	{"Timing Belt", 60000, 48},
	{"Spark Plugs", 50000, 48},
}

// DefaultTypes returns the starter catalog of maintenance types for a new
// account, owned by userID and without ids.
func DefaultTypes(userID primitive.ObjectID) []models.MaintenanceType {
	types := make([]models.MaintenanceType, 0, len(defaultCatalog))
	for _, e := range defaultCatalog {
		km, months := e.km, e.months
		types = append(types, models.MaintenanceType{
			UserID:                userID,
			Name:                  e.name,
			DefaultIntervalKm:     &km,
			DefaultIntervalMonths: &months,
		})
	}
	return types
}
