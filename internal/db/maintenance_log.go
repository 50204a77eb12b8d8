package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaintenanceLogCollection defines the interface for maintenance log
// operations.
type MaintenanceLogCollection interface {
	InsertLog(ctx context.Context, log models.MaintenanceLog) (*models.MaintenanceLog, error)
	FindLogByID(ctx context.Context, id string) (*models.MaintenanceLog, error)
	FindLatestLog(ctx context.Context, vehicleID, typeID string) (*models.MaintenanceLog, error)
	FindLogsByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceLog, error)
	FindLogsByVehicles(ctx context.Context, vehicleIDs []string, since time.Time) ([]models.MaintenanceLog, error)
	HasLogsForType(ctx context.Context, typeID string) (bool, error)
	UpdateLog(ctx context.Context, id string, log models.MaintenanceLog) error
	DeleteLog(ctx context.Context, id string) error
	DeleteLogsByVehicle(ctx context.Context, vehicleID string) error
}

// MongoLogCollection implements MaintenanceLogCollection for MongoDB.
type MongoLogCollection struct {
	Collection *mongo.Collection
}

var newestFirst = bson.D{{Key: "date_performed", Value: -1}, {Key: "_id", Value: -1}}

// InsertLog inserts a maintenance log.
func (c *MongoLogCollection) InsertLog(ctx context.Context, log models.MaintenanceLog) (*models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, log); err != nil {
		return nil, mapError("maintenance log", err)
	}
	return &log, nil
}

// FindLogByID finds a maintenance log by ID.
func (c *MongoLogCollection) FindLogByID(ctx context.Context, id string) (*models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID("maintenance log", id)
	if err != nil {
		return nil, err
	}

	var log models.MaintenanceLog
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&log); err != nil {
		return nil, mapError("maintenance log", err)
	}
	return &log, nil
}

// FindLatestLog returns the most recent log of one type on one vehicle, or
// nil when the type was never performed there.
func (c *MongoLogCollection) FindLatestLog(ctx context.Context, vehicleID, typeID string) (*models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	vehicleOID, err := parseID("vehicle", vehicleID)
	if err != nil {
		return nil, err
	}
	typeOID, err := parseID("maintenance type", typeID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"vehicle_id": vehicleOID, "maintenance_type_id": typeOID}
	opts := options.FindOne().SetSort(newestFirst)

	var log models.MaintenanceLog
	err = c.Collection.FindOne(ctx, filter, opts).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindLogsByVehicle lists a vehicle's logs, newest first.
func (c *MongoLogCollection) FindLogsByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	vehicleOID, err := parseID("vehicle", vehicleID)
	if err != nil {
		return nil, err
	}
	return c.find(ctx, bson.M{"vehicle_id": vehicleOID})
}

// FindLogsByVehicles lists the logs of several vehicles performed at or
// after since, newest first.
func (c *MongoLogCollection) FindLogsByVehicles(ctx context.Context, vehicleIDs []string, since time.Time) ([]models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if len(vehicleIDs) == 0 {
		return []models.MaintenanceLog{}, nil
	}
	oids, err := parseIDs("vehicle", vehicleIDs)
	if err != nil {
		return nil, err
	}
	return c.find(ctx, bson.M{
		"vehicle_id":     bson.M{"$in": oids},
		"date_performed": bson.M{"$gte": since},
	})
}

func (c *MongoLogCollection) find(ctx context.Context, filter bson.M) ([]models.MaintenanceLog, error) {
	cursor, err := c.Collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	logs := []models.MaintenanceLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// HasLogsForType reports whether any log references the type.
func (c *MongoLogCollection) HasLogsForType(ctx context.Context, typeID string) (bool, error) {
	if c.Collection == nil {
		return false, errNilCollection
	}
	typeOID, err := parseID("maintenance type", typeID)
	if err != nil {
		return false, err
	}
	n, err := c.Collection.CountDocuments(ctx, bson.M{"maintenance_type_id": typeOID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateLog replaces a maintenance log.
func (c *MongoLogCollection) UpdateLog(ctx context.Context, id string, log models.MaintenanceLog) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("maintenance log", id)
	if err != nil {
		return err
	}

	log.ID = objectID
	log.UpdatedAt = time.Now().UTC()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, log)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mapError("maintenance log", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteLog deletes a maintenance log by ID.
func (c *MongoLogCollection) DeleteLog(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("maintenance log", id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mapError("maintenance log", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteLogsByVehicle deletes every log of a vehicle.
func (c *MongoLogCollection) DeleteLogsByVehicle(ctx context.Context, vehicleID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	vehicleOID, err := parseID("vehicle", vehicleID)
	if err != nil {
		return err
	}
	_, err = c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleOID})
	return err
}
