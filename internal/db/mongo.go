package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	vehiclesCollection = "vehicles"
	typesCollection    = "maintenance_types"
	logsCollection     = "maintenance_logs"
)

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate")

	errNilCollection = errors.New("mongo collection is nil")
)

// ConnectMongo connects to MongoDB and pings it before returning.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// TxRunner runs fn atomically. Store operations invoked with the ctx
// passed to fn take part in the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store groups the collections of one database.
type Store struct {
	Client       *mongo.Client
	Database     *mongo.Database
	Users        *MongoUserCollection
	Vehicles     *MongoVehicleCollection
	Types        *MongoTypeCollection
	Logs         *MongoLogCollection
	transactions bool
}

// NewStore binds the collections of dbName. With transactions disabled
// RunInTx calls fn directly, which is what a stand-alone mongod supports.
func NewStore(client *mongo.Client, dbName string, transactions bool) *Store {
	database := client.Database(dbName)
	return &Store{
		Client:       client,
		Database:     database,
		Users:        &MongoUserCollection{Collection: database.Collection(usersCollection)},
		Vehicles:     &MongoVehicleCollection{Collection: database.Collection(vehiclesCollection)},
		Types:        &MongoTypeCollection{Collection: database.Collection(typesCollection)},
		Logs:         &MongoLogCollection{Collection: database.Collection(logsCollection)},
		transactions: transactions,
	}
}

// RunInTx runs fn inside a session transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the unique and lookup indexes. It is safe to call
// on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.Users.Collection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.Vehicles.Collection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		s.Types.Collection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.Logs.Collection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "maintenance_type_id", Value: 1}, {Key: "date_performed", Value: -1}}},
			{Keys: bson.D{{Key: "maintenance_type_id", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the underlying client.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func parseID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s ID %q: %w", kind, id, ErrNotFound)
	}
	return oid, nil
}

func parseIDs(kind string, ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := parseID(kind, id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

// mapError converts driver errors to the package sentinels.
func mapError(kind string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", kind, ErrDuplicate)
	default:
		return err
	}
}
