package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"github.com/phpdave11/gofpdf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocsService renders booking confirmations and revenue reports as PDFs.
type DocsService struct {
	bookingsRepo  models.BookingsRepo
	reportService *ReportService
}

func NewDocsService(bookingsRepo models.BookingsRepo, reportService *ReportService) *DocsService {
	return &DocsService{
		bookingsRepo:  bookingsRepo,
		reportService: reportService,
	}
}

// BookingConfirmation renders the guest-facing confirmation for a booking.
func (ds *DocsService) BookingConfirmation(ctx context.Context, id primitive.ObjectID) ([]byte, string, error) {
	booking, err := ds.bookingsRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return buildConfirmationPDF(booking)
}

// RevenueReport renders the monthly revenue rollup for the back office.
func (ds *DocsService) RevenueReport(ctx context.Context) ([]byte, string, error) {
	stats, err := ds.reportService.Stats(ctx)
	if err != nil {
		return nil, "", err
	}
	monthly, err := ds.reportService.MonthlyRevenue(ctx)
	if err != nil {
		return nil, "", err
	}
	return buildRevenueReportPDF(stats, monthly)
}

func buildConfirmationPDF(b *models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Confirmation", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING CONFIRMATION")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference    : %s", b.Reference),
		fmt.Sprintf("Guest        : %s", b.GuestName),
		fmt.Sprintf("Email        : %s", b.GuestEmail),
		fmt.Sprintf("Room         : %s", b.RoomNumber),
		fmt.Sprintf("Check-in     : %s", b.CheckInDate.Format(helpers.DateLayout)),
		fmt.Sprintf("Check-out    : %s", b.CheckOutDate.Format(helpers.DateLayout)),
		fmt.Sprintf("Nights       : %d", models.Nights(b.CheckInDate, b.CheckOutDate)),
		fmt.Sprintf("Status       : %s", b.Status),
		fmt.Sprintf("Total Amount : $%.2f", b.TotalAmount),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please present this confirmation at the front desk on arrival.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("confirmation_%s.pdf", b.Reference), nil
}

func buildRevenueReportPDF(stats *Stats, monthly []models.RevenueBucket) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Revenue Report", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "REVENUE REPORT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Generated  : "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Bookings   : %d", stats.TotalBookings))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Revenue    : $%.2f", stats.TotalRevenue))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Monthly breakdown:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for _, bucket := range monthly {
		pdf.Cell(0, 6, fmt.Sprintf("%s   $%.2f (%d bookings)", bucket.Period, bucket.Revenue, bucket.Bookings))
		pdf.Ln(6)
	}

	if len(stats.RevenueByRoomType) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "By room type:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, row := range stats.RevenueByRoomType {
			pdf.Cell(0, 6, fmt.Sprintf("%s   $%.2f", row.RoomType, row.Revenue))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("revenue_%s.pdf", time.Now().Format("20060102")), nil
}
