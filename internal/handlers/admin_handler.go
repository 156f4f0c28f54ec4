package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
)

func AdminStats(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := r.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}

func AdminChartData(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := r.ChartData(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(data, ""))
	}
}

func AdminMonthlyRevenue(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		buckets, err := r.MonthlyRevenue(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(buckets, ""))
	}
}

func AdminYearlyRevenue(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		buckets, err := r.YearlyRevenue(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(buckets, ""))
	}
}

func AdminOccupancy(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := r.Occupancy(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(report, ""))
	}
}

// AdminRevenuePDF streams the printable revenue report.
func AdminRevenuePDF(d *services.DocsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pdf, filename, err := d.RevenueReport(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

func AdminAuditLogs(a *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := int64(50)
		if v := c.Query("limit"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid limit"))
				return
			}
			limit = n
		}

		entries, err := a.Recent(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(entries, ""))
	}
}

func AdminListBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := b.ListAllBookings(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

func AdminCheckIn(b *services.BookingService, a *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		booking, err := b.CheckIn(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		claims, _ := currentClaims(c)
		a.Log(c.Request.Context(), "check-in", "booking", id.Hex(), claims.UserID, map[string]any{
			"reference": booking.Reference,
			"room":      booking.RoomNumber,
		})
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "guest checked in"))
	}
}

func AdminCheckOut(b *services.BookingService, a *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		booking, err := b.CheckOut(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		claims, _ := currentClaims(c)
		a.Log(c.Request.Context(), "check-out", "booking", id.Hex(), claims.UserID, map[string]any{
			"reference": booking.Reference,
			"room":      booking.RoomNumber,
		})
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "guest checked out"))
	}
}

func AdminDeleteBooking(b *services.BookingService, a *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		if err := b.DeleteBooking(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		claims, _ := currentClaims(c)
		a.Log(c.Request.Context(), "delete", "booking", id.Hex(), claims.UserID, nil)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "booking deleted"))
	}
}
