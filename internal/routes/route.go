package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/container"
	"github.com/harborview/hms/internal/handlers"
	"github.com/harborview/hms/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	auth := middleware.AuthMiddleware(container.JWTSecret, container.Logger)

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "harborview-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.Register(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, container.SecureCookies))
		v1.POST("/logout", handlers.Logout(container.SecureCookies))
		v1.GET("/rooms", handlers.SearchRooms(container.RoomService))
		v1.GET("/rooms/available", handlers.AvailableRooms(container.RoomService))
		v1.GET("/rooms/:number", handlers.GetRoom(container.RoomService))
		v1.GET("/services", handlers.ListServices(container.CatalogService))
	}

	protected := v1.Group("/")
	protected.Use(auth)
	{
		protected.GET("/profile", handlers.Profile(container.UserService))
		protected.PATCH("/profile", handlers.UpdateProfile(container.UserService))
		protected.POST("/profile/password", handlers.ChangePassword(container.UserService))
		protected.GET("/dashboard", handlers.UserDashboard(container.UserService))

		protected.POST("/bookings", handlers.CreateBooking(container.BookingService))
		protected.GET("/bookings", handlers.MyBookings(container.BookingService))
		protected.GET("/bookings/:id", handlers.GetBooking(container.BookingService))
		protected.POST("/bookings/:id/cancel", handlers.CancelBooking(container.BookingService))
		protected.GET("/bookings/:id/confirmation", handlers.BookingConfirmationPDF(container.BookingService, container.DocsService))

		protected.GET("/users/:id", handlers.GetUser(container.UserService))
	}

	admin := v1.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.GET("/stats", handlers.AdminStats(container.ReportService))
		admin.GET("/chart-data", handlers.AdminChartData(container.ReportService))
		admin.GET("/revenue/monthly", handlers.AdminMonthlyRevenue(container.ReportService))
		admin.GET("/revenue/yearly", handlers.AdminYearlyRevenue(container.ReportService))
		admin.GET("/revenue/report", handlers.AdminRevenuePDF(container.DocsService))
		admin.GET("/occupancy", handlers.AdminOccupancy(container.ReportService))
		admin.GET("/audit-logs", handlers.AdminAuditLogs(container.AuditService))

		admin.GET("/users", handlers.ListUsers(container.UserService))
		admin.POST("/users", handlers.Register(container.UserService))

		admin.GET("/rooms", handlers.ListRooms(container.RoomService))
		admin.POST("/rooms", handlers.CreateRoom(container.RoomService))
		admin.PATCH("/rooms/:id", handlers.UpdateRoom(container.RoomService))
		admin.DELETE("/rooms/:id", handlers.DeleteRoom(container.RoomService))

		admin.POST("/services", handlers.CreateService(container.CatalogService))
		admin.PATCH("/services/:id", handlers.UpdateService(container.CatalogService))
		admin.DELETE("/services/:id", handlers.DeleteService(container.CatalogService))

		admin.GET("/bookings", handlers.AdminListBookings(container.BookingService))
		admin.POST("/bookings/:id/check-in", handlers.AdminCheckIn(container.BookingService, container.AuditService))
		admin.POST("/bookings/:id/check-out", handlers.AdminCheckOut(container.BookingService, container.AuditService))
		admin.POST("/bookings/:id/cancel", handlers.CancelBooking(container.BookingService))
		admin.DELETE("/bookings/:id", handlers.AdminDeleteBooking(container.BookingService, container.AuditService))
	}

	return r
}
