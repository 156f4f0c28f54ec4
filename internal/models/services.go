package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Service is a bookable hotel extra (spa, laundry, airport pickup).
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Price       float64            `bson:"price" json:"price" validate:"gte=0"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type ServicesRepo interface {
	CreateService(ctx context.Context, service *Service) (*Service, error)
	GetServiceByID(ctx context.Context, id primitive.ObjectID) (*Service, error)
	ListServices(ctx context.Context) ([]*Service, error)
	UpdateService(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Service, error)
	DeleteService(ctx context.Context, id primitive.ObjectID) error
	CountServices(ctx context.Context, filter bson.M) (int64, error)
}

func (mdb *MongodbRepo) CreateService(ctx context.Context, service *Service) (*Service, error) {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	service.CreatedAt = now
	service.UpdatedAt = now
	if service.ID.IsZero() {
		service.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, service); err != nil {
		return nil, fmt.Errorf("error inserting service: %v", err)
	}
	return service, nil
}

func (mdb *MongodbRepo) GetServiceByID(ctx context.Context, id primitive.ObjectID) (*Service, error) {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return nil, err
	}

	var service Service
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding service: %v", err)
	}
	return &service, nil
}

func (mdb *MongodbRepo) ListServices(ctx context.Context) ([]*Service, error) {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error finding services: %v", err)
	}
	defer cursor.Close(ctx)

	services := []*Service{}
	for cursor.Next(ctx) {
		var service Service
		if err := cursor.Decode(&service); err != nil {
			return nil, fmt.Errorf("error decoding service: %v", err)
		}
		services = append(services, &service)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return services, nil
}

func (mdb *MongodbRepo) UpdateService(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Service, error) {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return nil, err
	}

	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Service
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error updating service: %v", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) DeleteService(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting service: %v", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: service %s", ErrNotFound, id.Hex())
	}
	return nil
}

func (mdb *MongodbRepo) CountServices(ctx context.Context, filter bson.M) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, ServicesColName)
	if err != nil {
		return 0, err
	}
	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting services: %v", err)
	}
	return count, nil
}
