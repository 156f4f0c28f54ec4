package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Validate = validator.New()

const (
	DBName = "harborview"

	RoomsColName    = "rooms"
	BookingsColName = "bookings"
	UsersColName    = "users"
	ServicesColName = "services"
	AuditColName    = "audit_logs"
	CountersColName = "counters"
)

type MongodbRepo struct {
	mongodbClient *mongo.Client
}

func MongodbNewRepo(mongodbClient *mongo.Client) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("%w: mongodb client is not initialized", ErrUnavailable)
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}

// EnsureIndexes creates the indexes the write paths depend on. The unique
// reference index is what makes the counting-based reference generator safe
// under concurrent creation.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	bookings, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return err
	}
	_, err = bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("reference_unique"),
		},
		{
			Keys: bson.D{
				{Key: "room_number", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("room_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "guest_email", Value: 1}},
			Options: options.Index().SetName("guest_email_idx"),
		},
		{
			Keys:    bson.D{{Key: "check_in_date", Value: 1}},
			Options: options.Index().SetName("check_in_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating booking indexes: %v", err)
	}

	rooms, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return err
	}
	_, err = rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "room_number", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("room_number_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating room indexes: %v", err)
	}

	users, err := mdb.GetCollection(ctx, DBName, UsersColName)
	if err != nil {
		return err
	}
	_, err = users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating user indexes: %v", err)
	}

	audit, err := mdb.GetCollection(ctx, DBName, AuditColName)
	if err != nil {
		return err
	}
	_, err = audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_idx"),
	})
	if err != nil {
		return fmt.Errorf("error creating audit indexes: %v", err)
	}

	return nil
}
