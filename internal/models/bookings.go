package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCheckedIn BookingStatus = "checked-in"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// AmountEpsilon is the absolute tolerance when comparing a client-declared
// total against the computed nights × rate price.
const AmountEpsilon = 0.01

type Booking struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference          string             `bson:"reference" json:"reference"`
	GuestName          string             `bson:"guest_name" json:"guest_name" validate:"required"`
	GuestEmail         string             `bson:"guest_email" json:"guest_email" validate:"required,email"`
	RoomNumber         string             `bson:"room_number" json:"room_number" validate:"required"`
	CheckInDate        time.Time          `bson:"check_in_date" json:"check_in_date"`
	CheckOutDate       time.Time          `bson:"check_out_date" json:"check_out_date"`
	Status             BookingStatus      `bson:"status" json:"status"`
	TotalAmount        float64            `bson:"total_amount" json:"total_amount" validate:"gte=0"`
	PaymentStatus      string             `bson:"payment_status,omitempty" json:"payment_status,omitempty"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy          string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CancellationReason string             `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
	CheckedInAt        *time.Time         `bson:"checked_in_at,omitempty" json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time         `bson:"checked_out_at,omitempty" json:"checked_out_at,omitempty"`
	CancelledAt        *time.Time         `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// ActiveStatuses are the booking states that block a room for a date range.
// Pending, completed and cancelled bookings never participate in conflict
// detection.
var ActiveStatuses = []BookingStatus{BookingConfirmed, BookingCheckedIn}

// CancellableStatuses are the only states a booking may be cancelled from.
var CancellableStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (b *Booking) IsActive() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCheckedIn
}

func (b *Booking) IsCancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Overlaps reports whether the half-open ranges [aIn, aOut) and [bIn, bOut)
// intersect. A checkout and a same-day check-in do not overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// Nights is the billable night count for a stay, rounded up so partial days
// charge a full night. Callers must guarantee checkIn < checkOut.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// PriceFor computes nights × rate for a stay.
func PriceFor(checkIn, checkOut time.Time, rate float64) float64 {
	return float64(Nights(checkIn, checkOut)) * rate
}

// AmountMatches compares a client-declared total against the computed price
// within AmountEpsilon. A mismatch is rejected rather than corrected so stale
// client prices surface as errors.
func AmountMatches(declared, computed float64) bool {
	return math.Abs(declared-computed) <= AmountEpsilon
}

// FormatReference renders the human-readable booking reference for a creation
// date (UTC) and per-day sequence number, e.g. BK20240601-007.
func FormatReference(on time.Time, seq int64) string {
	return fmt.Sprintf("BK%s-%03d", on.UTC().Format("20060102"), seq)
}

type BookingsRepo interface {
	InsertBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*Booking, error)
	ListBookings(ctx context.Context, filter bson.M) ([]*Booking, error)
	CountConflicts(ctx context.Context, roomNumber string, checkIn, checkOut time.Time, exclude primitive.ObjectID) (int64, error)
	CountActiveForRoom(ctx context.Context, roomNumber string, exclude primitive.ObjectID) (int64, error)
	RoomNumbersWithConflicts(ctx context.Context, checkIn, checkOut time.Time) ([]string, error)
	NextReferenceSeq(ctx context.Context, day string) (int64, error)
	TransitionBooking(ctx context.Context, id primitive.ObjectID, from []BookingStatus, set bson.M) (*Booking, error)
	DeleteBooking(ctx context.Context, id primitive.ObjectID) error
	CountBookings(ctx context.Context, filter bson.M) (int64, error)
}

func (mdb *MongodbRepo) InsertBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, booking.Reference)
		}
		return nil, fmt.Errorf("error inserting booking: %v", err)
	}
	return booking, nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %v", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"reference": reference}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %v", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookings(ctx context.Context, filter bson.M) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "check_in_date", Value: -1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %v", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	for cursor.Next(ctx) {
		var booking Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, fmt.Errorf("error decoding booking: %v", err)
		}
		bookings = append(bookings, &booking)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return bookings, nil
}

// CountConflicts counts active bookings on a room whose [check_in, check_out)
// range intersects the candidate range: existing.check_in < checkOut AND
// existing.check_out > checkIn. Pass exclude to re-check an existing booking
// without counting itself.
func (mdb *MongodbRepo) CountConflicts(ctx context.Context, roomNumber string, checkIn, checkOut time.Time, exclude primitive.ObjectID) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return 0, err
	}

	filter := bson.M{
		"room_number":    roomNumber,
		"status":         bson.M{"$in": ActiveStatuses},
		"check_in_date":  bson.M{"$lt": checkOut},
		"check_out_date": bson.M{"$gt": checkIn},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting conflicts: %v", err)
	}
	return count, nil
}

// CountActiveForRoom counts bookings still blocking a room, regardless of
// dates. Cancellation and check-out consult this before resetting the room's
// status flag so a room covered by another active booking stays occupied.
func (mdb *MongodbRepo) CountActiveForRoom(ctx context.Context, roomNumber string, exclude primitive.ObjectID) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return 0, err
	}

	filter := bson.M{
		"room_number": roomNumber,
		"status":      bson.M{"$in": ActiveStatuses},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting active bookings: %v", err)
	}
	return count, nil
}

// RoomNumbersWithConflicts returns the distinct room numbers covered by an
// active booking overlapping the given range; the public room search excludes
// them.
func (mdb *MongodbRepo) RoomNumbersWithConflicts(ctx context.Context, checkIn, checkOut time.Time) ([]string, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"status":         bson.M{"$in": ActiveStatuses},
		"check_in_date":  bson.M{"$lt": checkOut},
		"check_out_date": bson.M{"$gt": checkIn},
	}
	raw, err := col.Distinct(ctx, "room_number", filter)
	if err != nil {
		return nil, fmt.Errorf("error listing conflicting rooms: %v", err)
	}

	numbers := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			numbers = append(numbers, s)
		}
	}
	return numbers, nil
}

// NextReferenceSeq atomically increments and returns the per-day booking
// sequence. The counter lives in its own collection keyed by the UTC calendar
// day so it survives restarts and multiple instances; the unique reference
// index is the backstop if a stale counter ever hands out a duplicate.
func (mdb *MongodbRepo) NextReferenceSeq(ctx context.Context, day string) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, CountersColName)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": "booking-" + day},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error incrementing reference counter: %v", err)
	}
	return counter.Seq, nil
}

// TransitionBooking applies set to a booking only when its current status is
// in from, in a single findAndModify. A booking that has left the allowed
// states (already cancelled, checked-in, …) makes the update a no-match, so
// status transitions cannot race each other.
func (mdb *MongodbRepo) TransitionBooking(ctx context.Context, id primitive.ObjectID, from []BookingStatus, set bson.M) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return nil, err
	}

	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Booking
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: booking is not in a state that allows this transition", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating booking: %v", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting booking: %v", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: booking %s", ErrNotFound, id.Hex())
	}
	return nil
}

func (mdb *MongodbRepo) CountBookings(ctx context.Context, filter bson.M) (int64, error) {
	col, err := mdb.GetCollection(ctx, DBName, BookingsColName)
	if err != nil {
		return 0, err
	}
	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting bookings: %v", err)
	}
	return count, nil
}
