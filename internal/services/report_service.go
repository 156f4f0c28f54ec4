package services

import (
	"context"
	"time"

	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

const trendLookback = 30 * 24 * time.Hour

// ReportService produces the read-only rollups for the admin back office.
// It never mutates state.
type ReportService struct {
	reportsRepo  models.ReportsRepo
	roomsRepo    models.RoomsRepo
	bookingsRepo models.BookingsRepo
	usersRepo    models.UserRepo
	servicesRepo models.ServicesRepo
}

func NewReportService(reportsRepo models.ReportsRepo, roomsRepo models.RoomsRepo, bookingsRepo models.BookingsRepo, usersRepo models.UserRepo, servicesRepo models.ServicesRepo) *ReportService {
	return &ReportService{
		reportsRepo:  reportsRepo,
		roomsRepo:    roomsRepo,
		bookingsRepo: bookingsRepo,
		usersRepo:    usersRepo,
		servicesRepo: servicesRepo,
	}
}

type Stats struct {
	TotalRooms        int64                    `json:"total_rooms"`
	TotalBookings     int64                    `json:"total_bookings"`
	TotalServices     int64                    `json:"total_services"`
	TotalUsers        int64                    `json:"total_users"`
	TotalRevenue      float64                  `json:"total_revenue"`
	RevenueByRoomType []models.RoomTypeRevenue `json:"revenue_by_room_type"`
}

type ChartData struct {
	BookingsOverTime []models.DayCount   `json:"bookings_over_time"`
	RevenueOverTime  []models.DayRevenue `json:"revenue_over_time"`
}

type OccupancyReport struct {
	CurrentOccupancyRate float64                 `json:"current_occupancy_rate"`
	AverageOccupancy     float64                 `json:"average_occupancy"`
	OccupancyTrends      []models.OccupancyPoint `json:"occupancy_trends"`
}

func (rs *ReportService) Stats(ctx context.Context) (*Stats, error) {
	rooms, err := rs.roomsRepo.CountRooms(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	bookings, err := rs.bookingsRepo.CountBookings(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	services, err := rs.servicesRepo.CountServices(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	users, err := rs.usersRepo.CountUsers(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	revenue, err := rs.reportsRepo.TotalRevenue(ctx, nil)
	if err != nil {
		return nil, err
	}
	byType, err := rs.reportsRepo.RevenueByRoomType(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalRooms:        rooms,
		TotalBookings:     bookings,
		TotalServices:     services,
		TotalUsers:        users,
		TotalRevenue:      revenue,
		RevenueByRoomType: byType,
	}, nil
}

func (rs *ReportService) ChartData(ctx context.Context) (*ChartData, error) {
	since := time.Now().Add(-trendLookback)

	bookings, err := rs.reportsRepo.BookingsPerDay(ctx, since)
	if err != nil {
		return nil, err
	}
	revenue, err := rs.reportsRepo.RevenuePerDay(ctx, since)
	if err != nil {
		return nil, err
	}

	return &ChartData{
		BookingsOverTime: bookings,
		RevenueOverTime:  revenue,
	}, nil
}

func (rs *ReportService) MonthlyRevenue(ctx context.Context) ([]models.RevenueBucket, error) {
	return rs.reportsRepo.RevenueByPeriod(ctx, "%Y-%m")
}

func (rs *ReportService) YearlyRevenue(ctx context.Context) ([]models.RevenueBucket, error) {
	return rs.reportsRepo.RevenueByPeriod(ctx, "%Y")
}

// Occupancy reports the point-in-time occupancy rate from the coarse room
// flags plus the mean fractional-day occupancy over the lookback window.
func (rs *ReportService) Occupancy(ctx context.Context) (*OccupancyReport, error) {
	total, err := rs.roomsRepo.CountRooms(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	occupied, err := rs.roomsRepo.CountRooms(ctx, bson.M{"status": models.RoomOccupied})
	if err != nil {
		return nil, err
	}

	trends, err := rs.reportsRepo.OccupancyTrend(ctx, time.Now().Add(-trendLookback))
	if err != nil {
		return nil, err
	}

	report := &OccupancyReport{OccupancyTrends: trends}
	if total > 0 {
		report.CurrentOccupancyRate = float64(occupied) / float64(total) * 100
	}
	if len(trends) > 0 && total > 0 {
		var sum float64
		for _, day := range trends {
			sum += day.OccupiedDays
		}
		report.AverageOccupancy = sum / (float64(len(trends)) * float64(total)) * 100
	}
	return report, nil
}
