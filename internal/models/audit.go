package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogEntry is an append-only record of an administrative mutation.
type AuditLogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Action    string             `bson:"action" json:"action"` // create, update, delete, check-in, check-out, cancel
	Entity    string             `bson:"entity" json:"entity"` // room, booking, service, user
	EntityID  string             `bson:"entity_id" json:"entity_id"`
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	Details   map[string]any     `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type AuditRepo interface {
	InsertAuditEntry(ctx context.Context, entry *AuditLogEntry) error
	ListAuditEntries(ctx context.Context, limit int64) ([]*AuditLogEntry, error)
}

func (mdb *MongodbRepo) InsertAuditEntry(ctx context.Context, entry *AuditLogEntry) error {
	col, err := mdb.GetCollection(ctx, DBName, AuditColName)
	if err != nil {
		return err
	}

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if _, err := col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error inserting audit entry: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListAuditEntries(ctx context.Context, limit int64) ([]*AuditLogEntry, error) {
	col, err := mdb.GetCollection(ctx, DBName, AuditColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding audit entries: %v", err)
	}
	defer cursor.Close(ctx)

	entries := []*AuditLogEntry{}
	for cursor.Next(ctx) {
		var entry AuditLogEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("error decoding audit entry: %v", err)
		}
		entries = append(entries, &entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return entries, nil
}
