package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category tags a maintenance log.
type Category string

const (
	CategoryPreventive Category = "preventive"
	CategoryWear       Category = "wear"
	CategoryCorrective Category = "corrective"
)

// IsValidCategory checks if a category is valid
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryPreventive, CategoryWear, CategoryCorrective:
		return true
	default:
		return false
	}
}

// MaintenanceType is a recurring maintenance procedure owned by a user.
// Both intervals are optional in storage.
type MaintenanceType struct {
	ID                    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID                primitive.ObjectID `json:"user_id" bson:"user_id"`
	Name                  string             `json:"name" bson:"name"`
	DefaultIntervalKm     *int               `json:"default_interval_km" bson:"default_interval_km,omitempty"`
	DefaultIntervalMonths *int               `json:"default_interval_months" bson:"default_interval_months,omitempty"`
	Description           string             `json:"description,omitempty" bson:"description,omitempty"`
}

// MaintenanceLog records that a maintenance type was performed on a vehicle.
type MaintenanceLog struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID         primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	MaintenanceTypeID primitive.ObjectID `json:"maintenance_type_id" bson:"maintenance_type_id"`
	DatePerformed     time.Time          `json:"date_performed" bson:"date_performed"`
	KmPerformed       int                `json:"km_performed" bson:"km_performed"`
	Notes             string             `json:"notes,omitempty" bson:"notes,omitempty"`
	ServiceCost       *float64           `json:"service_cost" bson:"service_cost,omitempty"` // labor
	ProductCost       *float64           `json:"product_cost" bson:"product_cost,omitempty"` // parts
	Category          Category           `json:"category" bson:"category"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// MaintenanceTypeRequest creates a maintenance type.
type MaintenanceTypeRequest struct {
	Name                  string `json:"name" validate:"required"`
	DefaultIntervalKm     *int   `json:"default_interval_km" validate:"omitempty,gte=0"`
	DefaultIntervalMonths *int   `json:"default_interval_months" validate:"omitempty,gte=0"`
	Description           string `json:"description"`
}

// MaintenanceTypeUpdate is a partial update of a maintenance type.
type MaintenanceTypeUpdate struct {
	Name                  *string `json:"name" validate:"omitempty,min=1"`
	DefaultIntervalKm     *int    `json:"default_interval_km" validate:"omitempty,gte=0"`
	DefaultIntervalMonths *int    `json:"default_interval_months" validate:"omitempty,gte=0"`
	Description           *string `json:"description"`
}

// MaintenanceLogRequest records a maintenance event. A zero DatePerformed
// means "now".
type MaintenanceLogRequest struct {
	MaintenanceTypeID string    `json:"maintenance_type_id" validate:"required"`
	KmPerformed       int       `json:"km_performed" validate:"gte=0"`
	DatePerformed     time.Time `json:"date_performed"`
	Notes             string    `json:"notes"`
	ServiceCost       *float64  `json:"service_cost" validate:"omitempty,gte=0"`
	ProductCost       *float64  `json:"product_cost" validate:"omitempty,gte=0"`
	Category          Category  `json:"category" validate:"omitempty,category"`
}

// MaintenanceLogUpdate is a partial update of a maintenance log.
type MaintenanceLogUpdate struct {
	MaintenanceTypeID *string    `json:"maintenance_type_id"`
	KmPerformed       *int       `json:"km_performed" validate:"omitempty,gte=0"`
	DatePerformed     *time.Time `json:"date_performed"`
	Notes             *string    `json:"notes"`
	ServiceCost       *float64   `json:"service_cost" validate:"omitempty,gte=0"`
	ProductCost       *float64   `json:"product_cost" validate:"omitempty,gte=0"`
	Category          *Category  `json:"category" validate:"omitempty,category"`
}

// RecordResult is returned after a maintenance event is recorded.
type RecordResult struct {
	Msg       string         `json:"msg"`
	NextDueKm int            `json:"next_due_km"`
	Log       MaintenanceLog `json:"log"`
}

// HistoryEntry is one line of a vehicle's maintenance history.
type HistoryEntry struct {
	ID              primitive.ObjectID `json:"id"`
	MaintenanceType string             `json:"maintenance_type"`
	DatePerformed   time.Time          `json:"date_performed"`
	KmPerformed     int                `json:"km_performed"`
	Notes           string             `json:"notes,omitempty"`
	ServiceCost     *float64           `json:"service_cost"`
	ProductCost     *float64           `json:"product_cost"`
	Category        Category           `json:"category"`
}

// MonthlyCost is one calendar-month bucket of maintenance spending.
type MonthlyCost struct {
	Month       string  `json:"month"`    // MM/YYYY
	SortKey     string  `json:"sort_key"` // YYYY-MM
	ServiceCost float64 `json:"service_cost"`
	ProductCost float64 `json:"product_cost"`
	Total       float64 `json:"total"`
	Count       int     `json:"count"`
}
