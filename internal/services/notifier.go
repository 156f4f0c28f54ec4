package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
)

// Notifier delivers booking lifecycle emails to the guest and the operator.
// Delivery is best-effort: a failed notification never fails the booking.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.Booking) error
	BookingCancelled(ctx context.Context, booking *models.Booking) error
}

// LogNotifier logs instead of sending, for development and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) BookingCreated(_ context.Context, booking *models.Booking) error {
	n.Logger.Info("booking created notification",
		"reference", booking.Reference,
		"guest_email", booking.GuestEmail,
		"room", booking.RoomNumber,
	)
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, booking *models.Booking) error {
	n.Logger.Info("booking cancelled notification",
		"reference", booking.Reference,
		"guest_email", booking.GuestEmail,
		"room", booking.RoomNumber,
	)
	return nil
}

// SMTPNotifier sends plain-text confirmation emails over SMTP.
type SMTPNotifier struct {
	Host          string
	Port          string
	Username      string
	Password      string
	From          string
	OperatorEmail string
}

func (n *SMTPNotifier) BookingCreated(ctx context.Context, booking *models.Booking) error {
	guestBody := fmt.Sprintf(
		"Dear %s,\n\nYour booking has been confirmed.\n\nReference: %s\nRoom: %s\nCheck-in: %s\nCheck-out: %s\nTotal Amount: $%.2f\n\nThank you for choosing our hotel!",
		booking.GuestName,
		booking.Reference,
		booking.RoomNumber,
		booking.CheckInDate.Format(helpers.DateLayout),
		booking.CheckOutDate.Format(helpers.DateLayout),
		booking.TotalAmount,
	)
	if err := n.send(booking.GuestEmail, "Booking Confirmation", guestBody); err != nil {
		return err
	}

	if n.OperatorEmail == "" {
		return nil
	}
	operatorBody := fmt.Sprintf(
		"A new booking has been made.\n\nReference: %s\nGuest: %s\nEmail: %s\nRoom: %s\nCheck-in: %s\nCheck-out: %s\nTotal Amount: $%.2f",
		booking.Reference,
		booking.GuestName,
		booking.GuestEmail,
		booking.RoomNumber,
		booking.CheckInDate.Format(helpers.DateLayout),
		booking.CheckOutDate.Format(helpers.DateLayout),
		booking.TotalAmount,
	)
	return n.send(n.OperatorEmail, "New Booking Alert", operatorBody)
}

func (n *SMTPNotifier) BookingCancelled(ctx context.Context, booking *models.Booking) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking has been cancelled.\n\nReference: %s\nRoom: %s\nCheck-in: %s\nCheck-out: %s\n\nThank you for choosing our hotel!",
		booking.GuestName,
		booking.Reference,
		booking.RoomNumber,
		booking.CheckInDate.Format(helpers.DateLayout),
		booking.CheckOutDate.Format(helpers.DateLayout),
	)
	if err := n.send(booking.GuestEmail, "Booking Cancellation Confirmation", body); err != nil {
		return err
	}

	if n.OperatorEmail == "" {
		return nil
	}
	operatorBody := fmt.Sprintf(
		"Booking %s for room %s was cancelled by %s.",
		booking.Reference,
		booking.RoomNumber,
		booking.GuestEmail,
	)
	return n.send(n.OperatorEmail, "Booking Cancelled", operatorBody)
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := n.Host + ":" + n.Port
	var auth smtp.Auth
	if n.Username != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}
	if err := smtp.SendMail(addr, auth, n.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("%w: smtp send failed: %v", models.ErrUnavailable, err)
	}
	return nil
}
