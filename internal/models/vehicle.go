package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a vehicle owned by a single user.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Make         string             `bson:"make" json:"make"`
	Model        string             `bson:"model" json:"model"`
	Year         int                `bson:"year" json:"year"`
	CurrentKm    int                `bson:"current_km" json:"current_km"` // odometer, in kilometers
	LicensePlate string             `bson:"license_plate" json:"license_plate"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// VehicleRequest is the body of vehicle create and update calls.
type VehicleRequest struct {
	Make         string `json:"make" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Year         int    `json:"year" validate:"gte=1900,lte=2100"`
	CurrentKm    int    `json:"current_km" validate:"gte=0"`
	LicensePlate string `json:"license_plate" validate:"required"`
}

// Alert is a due maintenance item attached to a vehicle summary.
type Alert struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// VehicleSummary is a vehicle with its computed alerts and total maintenance cost.
type VehicleSummary struct {
	ID                   primitive.ObjectID `json:"id"`
	Make                 string             `json:"make"`
	Model                string             `json:"model"`
	Year                 int                `json:"year"`
	CurrentKm            int                `json:"current_km"`
	LicensePlate         string             `json:"license_plate"`
	TotalMaintenanceCost float64            `json:"total_maintenance_cost"`
	Alerts               []Alert            `json:"alerts"`
}
