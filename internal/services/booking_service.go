package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CancellationWindow is how close to check-in a customer may still cancel.
// Enforced uniformly on every customer-facing path; admins are exempt.
const CancellationWindow = 24 * time.Hour

const notifyTimeout = 15 * time.Second

// keyedMutex hands out one mutex per room number so the conflict check and
// the booking insert run serialized per room. Entries are never removed; the
// map is bounded by the hotel's room count.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

type CreateBookingInput struct {
	GuestName     string    `validate:"required"`
	GuestEmail    string    `validate:"required,email"`
	RoomNumber    string    `validate:"required"`
	CheckIn       time.Time `validate:"required"`
	CheckOut      time.Time `validate:"required"`
	DeclaredTotal float64   `validate:"gte=0"`
	Notes         string
	CreatedBy     string
}

type BookingService struct {
	bookingsRepo models.BookingsRepo
	roomsRepo    models.RoomsRepo
	notifier     Notifier
	logger       *slog.Logger
	roomLocks    keyedMutex

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewBookingService(bookingsRepo models.BookingsRepo, roomsRepo models.RoomsRepo, notifier Notifier, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookingsRepo: bookingsRepo,
		roomsRepo:    roomsRepo,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// HasConflict reports whether an active booking overlaps the candidate range
// on the room. Read-only; exclude skips a booking being re-checked.
func (bs *BookingService) HasConflict(ctx context.Context, roomNumber string, checkIn, checkOut time.Time, exclude primitive.ObjectID) (bool, error) {
	count, err := bs.bookingsRepo.CountConflicts(ctx, roomNumber, checkIn, checkOut, exclude)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateBooking is the reservation write path. Validation is fail-fast in a
// fixed order; nothing is written until every check has passed, and the
// conflict check plus insert run under the room's lock so two concurrent
// requests for overlapping ranges cannot both succeed.
func (bs *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	checkIn := input.CheckIn.UTC()
	checkOut := input.CheckOut.UTC()
	if !checkIn.Before(checkOut) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", models.ErrValidation)
	}
	if checkIn.Before(helpers.TodayUTC()) {
		return nil, fmt.Errorf("%w: check-in date is in the past", models.ErrValidation)
	}

	lock := bs.roomLocks.get(input.RoomNumber)
	lock.Lock()
	defer lock.Unlock()

	room, err := bs.roomsRepo.GetRoomByNumber(ctx, input.RoomNumber)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomAvailable {
		return nil, fmt.Errorf("%w: room %s is not available", models.ErrConflict, room.RoomNumber)
	}

	price := models.PriceFor(checkIn, checkOut, room.Price)
	if !models.AmountMatches(input.DeclaredTotal, price) {
		return nil, fmt.Errorf("%w: total amount %.2f does not match expected %.2f", models.ErrValidation, input.DeclaredTotal, price)
	}

	conflict, err := bs.HasConflict(ctx, room.RoomNumber, checkIn, checkOut, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fmt.Errorf("%w: room %s is already booked for these dates", models.ErrConflict, room.RoomNumber)
	}

	now := bs.now()
	booking := &models.Booking{
		GuestName:     input.GuestName,
		GuestEmail:    input.GuestEmail,
		RoomNumber:    room.RoomNumber,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Status:        models.BookingConfirmed,
		TotalAmount:   price,
		PaymentStatus: "pending",
		Notes:         input.Notes,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := bs.insertWithReference(ctx, booking, now)
	if err != nil {
		return nil, err
	}

	if err := bs.roomsRepo.SetRoomStatus(ctx, room.RoomNumber, models.RoomOccupied); err != nil {
		// The status flag is a display cache recomputed on the next status
		// change; the booking itself is authoritative.
		bs.logger.Error("failed to mark room occupied", "room", room.RoomNumber, "error", err)
	}

	bs.notifyAsync(created, bs.notifier.BookingCreated)
	return created, nil
}

// insertWithReference allocates a per-day sequence, formats the reference and
// inserts. The unique reference index catches the race where two same-day
// creations draw the same sequence; one retry with a fresh sequence resolves
// it.
func (bs *BookingService) insertWithReference(ctx context.Context, booking *models.Booking, on time.Time) (*models.Booking, error) {
	day := on.UTC().Format("20060102")
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := bs.bookingsRepo.NextReferenceSeq(ctx, day)
		if err != nil {
			return nil, err
		}
		booking.Reference = models.FormatReference(on, seq)
		booking.ID = primitive.NilObjectID

		created, err := bs.bookingsRepo.InsertBooking(ctx, booking)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, models.ErrDuplicateReference) {
			return nil, err
		}
		bs.logger.Warn("duplicate booking reference, regenerating", "reference", booking.Reference)
	}
	return nil, fmt.Errorf("%w: could not allocate a unique booking reference", models.ErrConflict)
}

// CancelBooking is the compensating write path. Customers may cancel only
// their own pending/confirmed bookings outside the cancellation window;
// admins may cancel any pending/confirmed booking at any time.
func (bs *BookingService) CancelBooking(ctx context.Context, id primitive.ObjectID, actorEmail string, isAdmin bool, reason string) (*models.Booking, error) {
	booking, err := bs.bookingsRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && booking.GuestEmail != actorEmail {
		return nil, fmt.Errorf("%w: booking belongs to another guest", models.ErrForbidden)
	}
	if !booking.IsCancellable() {
		return nil, fmt.Errorf("%w: booking with status %q cannot be cancelled", models.ErrConflict, booking.Status)
	}
	if !isAdmin && booking.CheckInDate.Sub(bs.now()) < CancellationWindow {
		return nil, fmt.Errorf("%w: bookings cannot be cancelled within 24 hours of check-in", models.ErrConflict)
	}

	now := bs.now()
	set := bson.M{
		"status":       models.BookingCancelled,
		"cancelled_at": now,
	}
	if reason != "" {
		set["cancellation_reason"] = reason
	}
	cancelled, err := bs.bookingsRepo.TransitionBooking(ctx, id, models.CancellableStatuses, set)
	if err != nil {
		return nil, err
	}

	bs.releaseRoomIfIdle(ctx, cancelled.RoomNumber, cancelled.ID)
	bs.notifyAsync(cancelled, bs.notifier.BookingCancelled)
	return cancelled, nil
}

// CheckIn moves a confirmed booking to checked-in.
func (bs *BookingService) CheckIn(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	now := bs.now()
	return bs.bookingsRepo.TransitionBooking(ctx, id,
		[]models.BookingStatus{models.BookingConfirmed},
		bson.M{"status": models.BookingCheckedIn, "checked_in_at": now},
	)
}

// CheckOut completes a checked-in booking and frees the room if nothing else
// still covers it.
func (bs *BookingService) CheckOut(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	now := bs.now()
	booking, err := bs.bookingsRepo.TransitionBooking(ctx, id,
		[]models.BookingStatus{models.BookingCheckedIn},
		bson.M{"status": models.BookingCompleted, "checked_out_at": now},
	)
	if err != nil {
		return nil, err
	}
	bs.releaseRoomIfIdle(ctx, booking.RoomNumber, booking.ID)
	return booking, nil
}

// DeleteBooking is the unguarded administrative hard delete.
func (bs *BookingService) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	booking, err := bs.bookingsRepo.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bs.bookingsRepo.DeleteBooking(ctx, id); err != nil {
		return err
	}
	bs.releaseRoomIfIdle(ctx, booking.RoomNumber, booking.ID)
	return nil
}

func (bs *BookingService) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return bs.bookingsRepo.GetBookingByID(ctx, id)
}

func (bs *BookingService) ListAllBookings(ctx context.Context) ([]*models.Booking, error) {
	return bs.bookingsRepo.ListBookings(ctx, bson.M{})
}

func (bs *BookingService) ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}
	return bs.bookingsRepo.ListBookings(ctx, bson.M{"guest_email": email})
}

// releaseRoomIfIdle resets a room to available only when no other active
// booking still covers it. Resetting unconditionally would free a room that a
// second active booking (entered through a bug or an admin override) still
// holds.
func (bs *BookingService) releaseRoomIfIdle(ctx context.Context, roomNumber string, exclude primitive.ObjectID) {
	active, err := bs.bookingsRepo.CountActiveForRoom(ctx, roomNumber, exclude)
	if err != nil {
		bs.logger.Error("failed to recount active bookings", "room", roomNumber, "error", err)
		return
	}
	if active > 0 {
		return
	}
	if err := bs.roomsRepo.SetRoomStatus(ctx, roomNumber, models.RoomAvailable); err != nil {
		bs.logger.Error("failed to release room", "room", roomNumber, "error", err)
	}
}

// notifyAsync fires a notification without blocking or failing the request.
func (bs *BookingService) notifyAsync(booking *models.Booking, send func(context.Context, *models.Booking) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx, booking); err != nil {
			bs.logger.Error("notification failed", "reference", booking.Reference, "error", err)
		}
	}()
}
