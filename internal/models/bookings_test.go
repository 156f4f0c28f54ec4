package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                 string
		aIn, aOut, bIn, bOut string
		want                 bool
	}{
		{"fully overlapping", "2026-03-10", "2026-03-15", "2026-03-10", "2026-03-15", true},
		{"partial overlap at start", "2026-03-10", "2026-03-15", "2026-03-08", "2026-03-12", true},
		{"partial overlap at end", "2026-03-10", "2026-03-15", "2026-03-13", "2026-03-20", true},
		{"contained range", "2026-03-10", "2026-03-15", "2026-03-11", "2026-03-13", true},
		{"checkout touches checkin", "2026-03-10", "2026-03-15", "2026-03-15", "2026-03-20", false},
		{"checkin touches checkout", "2026-03-15", "2026-03-20", "2026-03-10", "2026-03-15", false},
		{"disjoint before", "2026-03-10", "2026-03-12", "2026-03-13", "2026-03-15", false},
		{"disjoint after", "2026-03-13", "2026-03-15", "2026-03-10", "2026-03-12", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(day(tt.aIn), day(tt.aOut), day(tt.bIn), day(tt.bOut))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, Nights(day("2026-03-10"), day("2026-03-11")))
	assert.Equal(t, 5, Nights(day("2026-03-10"), day("2026-03-15")))
	assert.Equal(t, 0, Nights(day("2026-03-10"), day("2026-03-10")))

	// A partial day still counts as a full night.
	in := day("2026-03-10")
	out := in.Add(30 * time.Hour)
	assert.Equal(t, 2, Nights(in, out))
}

func TestPriceFor(t *testing.T) {
	assert.InDelta(t, 500.0, PriceFor(day("2026-03-10"), day("2026-03-15"), 100), 0.001)
	assert.InDelta(t, 149.99, PriceFor(day("2026-03-10"), day("2026-03-11"), 149.99), 0.001)
}

func TestAmountMatches(t *testing.T) {
	assert.True(t, AmountMatches(500.00, 500.00))
	assert.True(t, AmountMatches(500.005, 500.00))
	assert.False(t, AmountMatches(500.02, 500.00))
	assert.False(t, AmountMatches(499.0, 500.00))
}

func TestFormatReference(t *testing.T) {
	on := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "BK20260310-001", FormatReference(on, 1))
	assert.Equal(t, "BK20260310-042", FormatReference(on, 42))
	assert.Equal(t, "BK20260310-1000", FormatReference(on, 1000))

	// The date component follows UTC, not the local zone of the input.
	est := time.FixedZone("EST", -5*3600)
	lateNight := time.Date(2026, 3, 10, 22, 0, 0, 0, est)
	assert.Equal(t, "BK20260311-001", FormatReference(lateNight, 1))
}

func TestBookingIsCancellable(t *testing.T) {
	for _, status := range []BookingStatus{BookingPending, BookingConfirmed} {
		b := Booking{Status: status}
		assert.True(t, b.IsCancellable(), string(status))
	}
	for _, status := range []BookingStatus{BookingCheckedIn, BookingCompleted, BookingCancelled} {
		b := Booking{Status: status}
		assert.False(t, b.IsCancellable(), string(status))
	}
}
