package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harborview/hms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return nil, fmt.Errorf("%w: user already exists", models.ErrConflict)
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	f.users[stored.ID] = &stored
	result := stored
	return &result, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, username)
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		result := *u
		out = append(out, &result)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if password, ok := fields["password"].(string); ok {
		u.Password = password
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context, _ bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

// fakeReportsRepo returns canned rollups.
type fakeReportsRepo struct {
	revenue float64
}

func (f *fakeReportsRepo) TotalRevenue(_ context.Context, _ bson.M) (float64, error) {
	return f.revenue, nil
}

func (f *fakeReportsRepo) RevenueByRoomType(_ context.Context) ([]models.RoomTypeRevenue, error) {
	return nil, nil
}

func (f *fakeReportsRepo) BookingsPerDay(_ context.Context, _ time.Time) ([]models.DayCount, error) {
	return nil, nil
}

func (f *fakeReportsRepo) RevenuePerDay(_ context.Context, _ time.Time) ([]models.DayRevenue, error) {
	return nil, nil
}

func (f *fakeReportsRepo) RevenueByPeriod(_ context.Context, _ string) ([]models.RevenueBucket, error) {
	return nil, nil
}

func (f *fakeReportsRepo) OccupancyTrend(_ context.Context, _ time.Time) ([]models.OccupancyPoint, error) {
	return nil, nil
}

func validUser() *models.User {
	return &models.User{
		Username: "ama",
		FullName: "Ama Mensah",
		Email:    "ama@example.com",
		Password: "Str0ng!Pass",
	}
}

func TestRegisterHashesPasswordAndForcesCustomerRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeBookingsRepo(), &fakeReportsRepo{}, "test-secret")

	user := validUser()
	user.Role = models.RoleAdmin

	created, err := svc.Register(context.Background(), user, false)
	require.NoError(t, err)

	assert.Equal(t, models.RoleCustomer, created.Role)
	assert.Empty(t, created.Password)

	stored, err := repo.GetUserByUsername(context.Background(), "ama")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", stored.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Str0ng!Pass")))
}

func TestRegisterAdminActorMayGrantAdmin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeBookingsRepo(), &fakeReportsRepo{}, "test-secret")

	user := validUser()
	user.Role = models.RoleAdmin

	created, err := svc.Register(context.Background(), user, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeBookingsRepo(), &fakeReportsRepo{}, "test-secret")

	user := validUser()
	user.Password = "weak"

	_, err := svc.Register(context.Background(), user, false)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeBookingsRepo(), &fakeReportsRepo{}, "test-secret")

	_, err := svc.Register(context.Background(), validUser(), false)
	require.NoError(t, err)

	auth, err := svc.Authenticate(context.Background(), "ama", "Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, models.RoleCustomer, auth.Role)
	assert.Empty(t, auth.User.Password)

	_, err = svc.Authenticate(context.Background(), "ama", "wrong-password")
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestDashboardUpcomingUsesServiceClock(t *testing.T) {
	userRepo := newFakeUserRepo()
	bookings := newFakeBookingsRepo()
	svc := NewUserService(userRepo, bookings, &fakeReportsRepo{revenue: 750}, "test-secret")
	svc.now = func() time.Time { return testClock }

	created, err := svc.Register(context.Background(), validUser(), false)
	require.NoError(t, err)

	insert := func(checkIn, checkOut string, status models.BookingStatus) {
		_, err := bookings.InsertBooking(context.Background(), &models.Booking{
			Reference:    fmt.Sprintf("BK-%s-%s", checkIn, status),
			GuestEmail:   "ama@example.com",
			RoomNumber:   "101",
			CheckInDate:  futureDate(checkIn),
			CheckOutDate: futureDate(checkOut),
			Status:       status,
		})
		require.NoError(t, err)
	}

	// One stay after the pinned clock, one before it, one cancelled.
	insert("2030-06-10", "2030-06-15", models.BookingConfirmed)
	insert("2030-04-01", "2030-04-05", models.BookingConfirmed)
	insert("2030-07-01", "2030-07-05", models.BookingCancelled)

	dashboard, err := svc.Dashboard(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), dashboard.UpcomingBookings)
	assert.Equal(t, int64(2), dashboard.ActiveBookings)
	assert.InDelta(t, 750.0, dashboard.TotalSpent, 0.001)
	assert.Empty(t, dashboard.User.Password)
}
