package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger     *slog.Logger
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	MongoDBClient  *mongo.Client
	UserService    *services.UserService
	BookingService *services.BookingService
	RoomService    *services.RoomService
	CatalogService *services.CatalogService
	ReportService  *services.ReportService
	AuditService   *services.AuditService
	DocsService    *services.DocsService
	JWTSecret      string
	// SecureCookies marks auth cookies Secure; true in production.
	SecureCookies bool
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cloudinary *cloudinary.Cloudinary,
	mongoDBClient *mongo.Client,
	notifier services.Notifier,
	jwtSecret string,
	secureCookies bool,
) *Container {
	// Initialize repositories
	repo := models.MongodbNewRepo(mongoDBClient)

	auditService := services.NewAuditService(repo, logger)
	userService := services.NewUserService(repo, repo, repo, jwtSecret)
	bookingService := services.NewBookingService(repo, repo, notifier, logger)
	roomService := services.NewRoomService(repo, repo, auditService)
	catalogService := services.NewCatalogService(repo, auditService)
	reportService := services.NewReportService(repo, repo, repo, repo, repo)
	docsService := services.NewDocsService(repo, reportService)

	return &Container{
		Logger:         logger,
		Cloudinary:     cloudinary,
		MongoDBClient:  mongoDBClient,
		UserService:    userService,
		BookingService: bookingService,
		RoomService:    roomService,
		CatalogService: catalogService,
		ReportService:  reportService,
		AuditService:   auditService,
		DocsService:    docsService,
		JWTSecret:      jwtSecret,
		SecureCookies:  secureCookies,
	}
}
