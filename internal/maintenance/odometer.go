package maintenance

import "github.com/ukydev/fleet-maintenance/internal/models"

// FallbackIntervalKm is used for the next-due estimate when a type has no
// distance interval.
const FallbackIntervalKm = 10000

// RaiseOdometerIfNeeded moves the vehicle odometer up to km when km is
// higher and reports whether it changed. The reading never goes down.
// Every write that stores a km reading for a vehicle must call it.
func RaiseOdometerIfNeeded(v *models.Vehicle, km int) bool {
	if km <= v.CurrentKm {
		return false
	}
	v.CurrentKm = km
	return true
}

// HighestKm returns the highest km_performed among logs, or 0.
func HighestKm(logs []models.MaintenanceLog) int {
	highest := 0
	for _, l := range logs {
		if l.KmPerformed > highest {
			highest = l.KmPerformed
		}
	}
	return highest
}

// NextDueKm estimates the odometer reading at which the type is due again.
func NextDueKm(km int, mt *models.MaintenanceType) int {
	if mt == nil || mt.DefaultIntervalKm == nil {
		return km + FallbackIntervalKm
	}
	return km + *mt.DefaultIntervalKm
}
