package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
)

type createBookingRequest struct {
	GuestName   string  `json:"guest_name" binding:"required"`
	GuestEmail  string  `json:"guest_email" binding:"required,email"`
	RoomNumber  string  `json:"room_number" binding:"required"`
	CheckIn     string  `json:"check_in_date" binding:"required"`
	CheckOut    string  `json:"check_out_date" binding:"required"`
	TotalAmount float64 `json:"total_amount" binding:"gte=0"`
	Notes       string  `json:"notes"`
}

// CreateBooking reserves a room. Customers book for their own email; admins
// may book on behalf of any guest.
func CreateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		checkIn, err := helpers.ParseDate(req.CheckIn)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		checkOut, err := helpers.ParseDate(req.CheckOut)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		if !claims.IsAdmin() && req.GuestEmail != claims.Email {
			c.JSON(http.StatusForbidden, models.ErrorResponse("bookings can only be made for your own account"))
			return
		}

		booking, err := b.CreateBooking(c.Request.Context(), services.CreateBookingInput{
			GuestName:     req.GuestName,
			GuestEmail:    req.GuestEmail,
			RoomNumber:    req.RoomNumber,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			DeclaredTotal: req.TotalAmount,
			Notes:         req.Notes,
			CreatedBy:     claims.UserID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "booking confirmed"))
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		claims, exists := currentClaims(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}

		booking, err := b.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !claims.IsAdmin() && booking.GuestEmail != claims.Email {
			c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func CancelBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		claims, exists := currentClaims(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		// A body is optional on cancellation.
		_ = c.ShouldBindJSON(&req)

		cancelled, err := b.CancelBooking(c.Request.Context(), id, claims.Email, claims.IsAdmin(), req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(cancelled, "booking cancelled"))
	}
}

// BookingConfirmationPDF streams the printable confirmation for a booking.
func BookingConfirmationPDF(b *services.BookingService, d *services.DocsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		claims, exists := currentClaims(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}

		booking, err := b.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !claims.IsAdmin() && booking.GuestEmail != claims.Email {
			c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
			return
		}

		pdf, filename, err := d.BookingConfirmation(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
