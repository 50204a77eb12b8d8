package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error)
	FindVehiclesByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleForOwner(ctx context.Context, id, ownerID string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	DeleteVehiclesByOwner(ctx context.Context, ownerID string) error
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, vehicle); err != nil {
		return nil, mapError("vehicle", err)
	}
	return &vehicle, nil
}

// FindVehiclesByOwner lists the vehicles of one user, oldest first.
func (c *MongoVehicleCollection) FindVehiclesByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	ownerOID, err := parseID("user", ownerID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"owner_id": ownerOID}, opts)
	if err != nil {
		return nil, err
	}
	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID("vehicle", id)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindVehicleForOwner finds a vehicle by ID only if ownerID owns it.
func (c *MongoVehicleCollection) FindVehicleForOwner(ctx context.Context, id, ownerID string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID("vehicle", id)
	if err != nil {
		return nil, err
	}
	ownerOID, err := parseID("user", ownerID)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, bson.M{"_id": objectID, "owner_id": ownerOID})
}

func (c *MongoVehicleCollection) findOne(ctx context.Context, filter bson.M) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, filter).Decode(&vehicle); err != nil {
		return nil, mapError("vehicle", err)
	}
	return &vehicle, nil
}

// UpdateVehicle updates a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("vehicle", id)
	if err != nil {
		return err
	}

	vehicle.ID = objectID
	vehicle.UpdatedAt = time.Now().UTC()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, vehicle)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mapError("vehicle", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("vehicle", id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mapError("vehicle", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteVehiclesByOwner deletes every vehicle of a user.
func (c *MongoVehicleCollection) DeleteVehiclesByOwner(ctx context.Context, ownerID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	ownerOID, err := parseID("user", ownerID)
	if err != nil {
		return err
	}
	_, err = c.Collection.DeleteMany(ctx, bson.M{"owner_id": ownerOID})
	return err
}
