package db

import (
	"context"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaintenanceTypeCollection defines the interface for per-user maintenance
// type operations.
type MaintenanceTypeCollection interface {
	InsertType(ctx context.Context, mt models.MaintenanceType) (*models.MaintenanceType, error)
	InsertTypes(ctx context.Context, types []models.MaintenanceType) error
	FindTypesByOwner(ctx context.Context, userID string) ([]models.MaintenanceType, error)
	FindTypeForOwner(ctx context.Context, id, userID string) (*models.MaintenanceType, error)
	CountTypesByOwner(ctx context.Context, userID string) (int64, error)
	UpdateType(ctx context.Context, id string, mt models.MaintenanceType) error
	DeleteType(ctx context.Context, id string) error
	DeleteTypesByOwner(ctx context.Context, userID string) error
}

// MongoTypeCollection implements MaintenanceTypeCollection for MongoDB.
type MongoTypeCollection struct {
	Collection *mongo.Collection
}

// InsertType inserts one maintenance type. A name already used by the same
// user yields ErrDuplicate.
func (c *MongoTypeCollection) InsertType(ctx context.Context, mt models.MaintenanceType) (*models.MaintenanceType, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if mt.ID.IsZero() {
		mt.ID = primitive.NewObjectID()
	}
	if _, err := c.Collection.InsertOne(ctx, mt); err != nil {
		return nil, mapError("maintenance type", err)
	}
	return &mt, nil
}

// InsertTypes bulk inserts maintenance types.
func (c *MongoTypeCollection) InsertTypes(ctx context.Context, types []models.MaintenanceType) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(types) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(types))
	for _, mt := range types {
		if mt.ID.IsZero() {
			mt.ID = primitive.NewObjectID()
		}
		docs = append(docs, mt)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return mapError("maintenance type", err)
}

// FindTypesByOwner lists a user's types ordered by name.
func (c *MongoTypeCollection) FindTypesByOwner(ctx context.Context, userID string) ([]models.MaintenanceType, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userOID}, opts)
	if err != nil {
		return nil, err
	}
	types := []models.MaintenanceType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// FindTypeForOwner finds a type by ID only if it belongs to userID.
func (c *MongoTypeCollection) FindTypeForOwner(ctx context.Context, id, userID string) (*models.MaintenanceType, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID("maintenance type", id)
	if err != nil {
		return nil, err
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, bson.M{"_id": objectID, "user_id": userOID})
}

func (c *MongoTypeCollection) findOne(ctx context.Context, filter bson.M) (*models.MaintenanceType, error) {
	var mt models.MaintenanceType
	if err := c.Collection.FindOne(ctx, filter).Decode(&mt); err != nil {
		return nil, mapError("maintenance type", err)
	}
	return &mt, nil
}

// CountTypesByOwner counts a user's maintenance types.
func (c *MongoTypeCollection) CountTypesByOwner(ctx context.Context, userID string) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return 0, err
	}
	return c.Collection.CountDocuments(ctx, bson.M{"user_id": userOID})
}

// UpdateType replaces a maintenance type.
func (c *MongoTypeCollection) UpdateType(ctx context.Context, id string, mt models.MaintenanceType) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("maintenance type", id)
	if err != nil {
		return err
	}

	mt.ID = objectID
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, mt)
	if err != nil {
		return mapError("maintenance type", err)
	}
	if result.MatchedCount == 0 {
		return mapError("maintenance type", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteType deletes a maintenance type by ID.
func (c *MongoTypeCollection) DeleteType(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID("maintenance type", id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mapError("maintenance type", mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteTypesByOwner deletes every type a user owns.
func (c *MongoTypeCollection) DeleteTypesByOwner(ctx context.Context, userID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return err
	}
	_, err = c.Collection.DeleteMany(ctx, bson.M{"user_id": userOID})
	return err
}
