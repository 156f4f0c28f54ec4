package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type RevenueBucket struct {
	Period   string  `bson:"_id" json:"period"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
	Bookings int64   `bson:"bookings" json:"bookings"`
}

type RoomTypeRevenue struct {
	RoomType string  `bson:"_id" json:"room_type"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
}

type DayCount struct {
	Day   string `bson:"_id" json:"day"`
	Count int64  `bson:"count" json:"count"`
}

type DayRevenue struct {
	Day     string  `bson:"_id" json:"day"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

type OccupancyPoint struct {
	Day          string  `bson:"_id" json:"day"`
	OccupiedDays float64 `bson:"occupied_days" json:"occupied_days"`
}

type ReportsRepo interface {
	TotalRevenue(ctx context.Context, match bson.M) (float64, error)
	RevenueByRoomType(ctx context.Context) ([]RoomTypeRevenue, error)
	BookingsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	RevenuePerDay(ctx context.Context, since time.Time) ([]DayRevenue, error)
	RevenueByPeriod(ctx context.Context, dateFormat string) ([]RevenueBucket, error)
	OccupancyTrend(ctx context.Context, since time.Time) ([]OccupancyPoint, error)
}

// revenueMatch excludes cancelled bookings from every revenue rollup.
func revenueMatch(extra bson.M) bson.M {
	match := bson.M{"status": bson.M{"$ne": BookingCancelled}}
	for k, v := range extra {
		match[k] = v
	}
	return match
}

func (mdb *MongodbRepo) TotalRevenue(ctx context.Context, match bson.M) (float64, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueMatch(match)}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total_amount"},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("error aggregating revenue: %v", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("error decoding revenue: %v", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// RevenueByRoomType joins bookings to rooms on the denormalized room_number
// key and groups revenue by the room's category.
func (mdb *MongodbRepo) RevenueByRoomType(ctx context.Context) ([]RoomTypeRevenue, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueMatch(nil)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         RoomsColName,
			"localField":   "room_number",
			"foreignField": "room_number",
			"as":           "room",
		}}},
		{{Key: "$unwind", Value: "$room"}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$room.type",
			"revenue": bson.M{"$sum": "$total_amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"revenue": -1}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating revenue by room type: %v", err)
	}
	defer cursor.Close(ctx)

	var result []RoomTypeRevenue
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding revenue by room type: %v", err)
	}
	return result, nil
}

func (mdb *MongodbRepo) BookingsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"check_in_date": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$check_in_date",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating bookings per day: %v", err)
	}
	defer cursor.Close(ctx)

	var result []DayCount
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding bookings per day: %v", err)
	}
	return result, nil
}

func (mdb *MongodbRepo) RevenuePerDay(ctx context.Context, since time.Time) ([]DayRevenue, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueMatch(bson.M{"check_in_date": bson.M{"$gte": since}})}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$check_in_date",
			}},
			"revenue": bson.M{"$sum": "$total_amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating revenue per day: %v", err)
	}
	defer cursor.Close(ctx)

	var result []DayRevenue
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding revenue per day: %v", err)
	}
	return result, nil
}

// RevenueByPeriod buckets revenue by a Mongo date format string, e.g. "%Y-%m"
// for monthly and "%Y" for yearly rollups.
func (mdb *MongodbRepo) RevenueByPeriod(ctx context.Context, dateFormat string) ([]RevenueBucket, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueMatch(nil)}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": dateFormat,
				"date":   "$check_in_date",
			}},
			"revenue":  bson.M{"$sum": "$total_amount"},
			"bookings": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating revenue by period: %v", err)
	}
	defer cursor.Close(ctx)

	var result []RevenueBucket
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding revenue by period: %v", err)
	}
	return result, nil
}

// OccupancyTrend sums fractional occupied days per check-in day bucket over
// the lookback window.
func (mdb *MongodbRepo) OccupancyTrend(ctx context.Context, since time.Time) ([]OccupancyPoint, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	dayMillis := int64(24 * time.Hour / time.Millisecond)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"check_in_date": bson.M{"$gte": since},
			"status":        bson.M{"$ne": BookingCancelled},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$check_in_date",
			}},
			"occupied_days": bson.M{"$sum": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$check_out_date", "$check_in_date"}},
				dayMillis,
			}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating occupancy trend: %v", err)
	}
	defer cursor.Close(ctx)

	var result []OccupancyPoint
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding occupancy trend: %v", err)
	}
	return result, nil
}
