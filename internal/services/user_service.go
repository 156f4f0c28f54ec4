package services

import (
	"context"
	"fmt"
	"time"

	"github.com/harborview/hms/internal/connect"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

type UserService struct {
	userRepo     models.UserRepo
	bookingsRepo models.BookingsRepo
	reportsRepo  models.ReportsRepo
	jwtSecret    string

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewUserService(userRepo models.UserRepo, bookingsRepo models.BookingsRepo, reportsRepo models.ReportsRepo, jwtSecret string) *UserService {
	return &UserService{
		userRepo:     userRepo,
		bookingsRepo: bookingsRepo,
		reportsRepo:  reportsRepo,
		jwtSecret:    jwtSecret,
		now:          time.Now,
	}
}

type AuthResult struct {
	Token string       `json:"token"`
	Role  string       `json:"role"`
	User  *models.User `json:"user"`
}

// Dashboard is the customer self-service summary.
type Dashboard struct {
	User             *models.User `json:"user"`
	ActiveBookings   int64        `json:"active_bookings"`
	UpcomingBookings int64        `json:"upcoming_bookings"`
	TotalSpent       float64      `json:"total_spent"`
}

// Register creates an account. Only an admin actor may grant the admin role;
// everyone else is registered as a customer regardless of the requested role.
func (us *UserService) Register(ctx context.Context, user *models.User, actorIsAdmin bool) (*models.User, error) {
	if err := models.Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if !helpers.IsPasswordStrong(user.Password) {
		return nil, fmt.Errorf("%w: password is not strong enough", models.ErrValidation)
	}
	if !actorIsAdmin || user.Role != models.RoleAdmin {
		user.Role = models.RoleCustomer
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashed)

	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	created.Password = ""
	return created, nil
}

func (us *UserService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := models.Validate.Var(username, "required,min=3"); err != nil {
		return nil, fmt.Errorf("%w: invalid username", models.ErrValidation)
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, fmt.Errorf("%w: password is required", models.ErrValidation)
	}

	user, err := us.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
	}

	token, err := helpers.SignToken(us.jwtSecret, user.ID.Hex(), user.Email, user.Username, user.Role, tokenTTL)
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return &AuthResult{Token: token, Role: user.Role, User: user}, nil
}

func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (us *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := us.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Password = ""
	}
	return users, nil
}

// UpdateProfile applies the allowed self-service fields; an avatar path is
// uploaded to media storage first.
func (us *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	allowed := bson.M{}
	for _, key := range []string{"fullname", "email", "phone", "image"} {
		if v, ok := fields[key]; ok {
			allowed[key] = v
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", models.ErrValidation)
	}

	if image, ok := allowed["image"].(string); ok && image != "" && connect.Cld != nil {
		urls, err := helpers.UploadImages(ctx, connect.Cld, []string{image}, helpers.AvatarFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %v", err)
		}
		if len(urls) > 0 {
			allowed["image"] = urls[0]
		}
	}

	updated, err := us.userRepo.UpdateUser(ctx, id, allowed)
	if err != nil {
		return nil, err
	}
	updated.Password = ""
	return updated, nil
}

func (us *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", models.ErrValidation)
	}
	if !helpers.IsPasswordStrong(next) {
		return fmt.Errorf("%w: new password is not strong enough", models.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	_, err = us.userRepo.UpdateUser(ctx, id, bson.M{"password": string(hashed)})
	return err
}

func (us *UserService) Dashboard(ctx context.Context, id primitive.ObjectID) (*Dashboard, error) {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := us.bookingsRepo.CountBookings(ctx, bson.M{
		"guest_email": user.Email,
		"status":      bson.M{"$in": models.ActiveStatuses},
	})
	if err != nil {
		return nil, err
	}

	upcoming, err := us.bookingsRepo.CountBookings(ctx, bson.M{
		"guest_email":   user.Email,
		"status":        models.BookingConfirmed,
		"check_in_date": bson.M{"$gte": us.now()},
	})
	if err != nil {
		return nil, err
	}

	spent, err := us.reportsRepo.TotalRevenue(ctx, bson.M{
		"guest_email": user.Email,
		"status":      models.BookingCompleted,
	})
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return &Dashboard{
		User:             user,
		ActiveBookings:   active,
		UpcomingBookings: upcoming,
		TotalSpent:       spent,
	}, nil
}
