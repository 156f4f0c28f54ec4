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

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room's status field is a coarse display cache; range-specific availability
// is always derived from the bookings collection, never from this flag.
type Room struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomNumber string             `bson:"room_number" json:"room_number" validate:"required"`
	Type       string             `bson:"type" json:"type" validate:"required"`
	Price      float64            `bson:"price" json:"price" validate:"gte=0"`
	Status     RoomStatus         `bson:"status" json:"status"`
	Features   []string           `bson:"features,omitempty" json:"features,omitempty"`
	Images     []string           `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt  time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt  time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// RoomFilter is the public room search surface. When both dates are set the
// search excludes rooms covered by an active booking in that range.
type RoomFilter struct {
	Type     string
	MinPrice *float64
	MaxPrice *float64
	CheckIn  *time.Time
	CheckOut *time.Time
}

type RoomsRepo interface {
	CreateRoom(ctx context.Context, room *Room) (*Room, error)
	GetRoomByNumber(ctx context.Context, roomNumber string) (*Room, error)
	GetRoomByID(ctx context.Context, id primitive.ObjectID) (*Room, error)
	ListRooms(ctx context.Context) ([]*Room, error)
	FindRooms(ctx context.Context, query bson.M) ([]*Room, error)
	UpdateRoom(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Room, error)
	SetRoomStatus(ctx context.Context, roomNumber string, status RoomStatus) error
	DeleteRoom(ctx context.Context, id primitive.ObjectID) error
	CountRooms(ctx context.Context, filter bson.M) (int64, error)
}

func (mdb *MongodbRepo) CreateRoom(ctx context.Context, room *Room) (*Room, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.ID.IsZero() {
		room.ID = primitive.NewObjectID()
	}
	if room.Status == "" {
		room.Status = RoomAvailable
	}

	if _, err := col.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: room %s already exists", ErrConflict, room.RoomNumber)
		}
		return nil, fmt.Errorf("error inserting room: %v", err)
	}
	return room, nil
}

func (mdb *MongodbRepo) GetRoomByNumber(ctx context.Context, roomNumber string) (*Room, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return nil, err
	}

	var room Room
	err = col.FindOne(ctx, bson.M{"room_number": roomNumber}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding room: %v", err)
	}
	return &room, nil
}

func (mdb *MongodbRepo) GetRoomByID(ctx context.Context, id primitive.ObjectID) (*Room, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return nil, err
	}

	var room Room
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding room: %v", err)
	}
	return &room, nil
}

func (mdb *MongodbRepo) ListRooms(ctx context.Context) ([]*Room, error) {
	return mdb.FindRooms(ctx, bson.M{})
}

func (mdb *MongodbRepo) FindRooms(ctx context.Context, query bson.M) ([]*Room, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "room_number", Value: 1}})
	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding rooms: %v", err)
	}
	defer cursor.Close(ctx)

	rooms := []*Room{}
	for cursor.Next(ctx) {
		var room Room
		if err := cursor.Decode(&room); err != nil {
			return nil, fmt.Errorf("error decoding room: %v", err)
		}
		rooms = append(rooms, &room)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return rooms, nil
}

func (mdb *MongodbRepo) UpdateRoom(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Room, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return nil, err
	}

	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Room
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: room number already in use", ErrConflict)
		}
		return nil, fmt.Errorf("error updating room: %v", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) SetRoomStatus(ctx context.Context, roomNumber string, status RoomStatus) error {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"room_number": roomNumber},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("error updating room status: %v", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomNumber)
	}
	return nil
}

func (mdb *MongodbRepo) DeleteRoom(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting room: %v", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: room %s", ErrNotFound, id.Hex())
	}
	return nil
}

func (mdb *MongodbRepo) CountRooms(ctx context.Context, filter bson.M) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, RoomsColName)
	if err != nil {
		return 0, err
	}
	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting rooms: %v", err)
	}
	return count, nil
}
