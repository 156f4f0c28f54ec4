package services

import (
	"context"
	"fmt"

	"github.com/harborview/hms/internal/connect"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomService struct {
	roomsRepo    models.RoomsRepo
	bookingsRepo models.BookingsRepo
	audit        *AuditService
}

func NewRoomService(roomsRepo models.RoomsRepo, bookingsRepo models.BookingsRepo, audit *AuditService) *RoomService {
	return &RoomService{
		roomsRepo:    roomsRepo,
		bookingsRepo: bookingsRepo,
		audit:        audit,
	}
}

// SearchRooms lists rooms matching the public filters. With a date range the
// result excludes rooms covered by an active booking in that range, derived
// from the bookings ledger rather than the coarse status flag.
func (rs *RoomService) SearchRooms(ctx context.Context, filter models.RoomFilter) ([]*models.Room, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	if filter.CheckIn != nil && filter.CheckOut != nil {
		if !filter.CheckIn.Before(*filter.CheckOut) {
			return nil, fmt.Errorf("%w: check-out must be after check-in", models.ErrValidation)
		}
		booked, err := rs.bookingsRepo.RoomNumbersWithConflicts(ctx, *filter.CheckIn, *filter.CheckOut)
		if err != nil {
			return nil, err
		}
		if len(booked) > 0 {
			query["room_number"] = bson.M{"$nin": booked}
		}
		query["status"] = bson.M{"$ne": models.RoomMaintenance}
	}

	return rs.roomsRepo.FindRooms(ctx, query)
}

// AvailableRooms lists rooms whose coarse status flag is available; a cheap
// pre-filter for listing UIs, not a range-specific availability check.
func (rs *RoomService) AvailableRooms(ctx context.Context) ([]*models.Room, error) {
	return rs.roomsRepo.FindRooms(ctx, bson.M{"status": models.RoomAvailable})
}

func (rs *RoomService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return rs.roomsRepo.ListRooms(ctx)
}

func (rs *RoomService) GetRoom(ctx context.Context, roomNumber string) (*models.Room, error) {
	if roomNumber == "" {
		return nil, fmt.Errorf("%w: room number is required", models.ErrValidation)
	}
	return rs.roomsRepo.GetRoomByNumber(ctx, roomNumber)
}

func (rs *RoomService) CreateRoom(ctx context.Context, room *models.Room, actorID string) (*models.Room, error) {
	if err := models.Validate.Struct(room); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	if len(room.Images) > 0 && connect.Cld != nil {
		urls, err := helpers.UploadImages(ctx, connect.Cld, room.Images, helpers.RoomFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload room images: %v", err)
		}
		room.Images = urls
	}

	created, err := rs.roomsRepo.CreateRoom(ctx, room)
	if err != nil {
		return nil, err
	}

	rs.audit.Log(ctx, "create", "room", created.ID.Hex(), actorID, map[string]any{
		"room_number": created.RoomNumber,
		"type":        created.Type,
		"price":       created.Price,
	})
	return created, nil
}

func (rs *RoomService) UpdateRoom(ctx context.Context, id primitive.ObjectID, fields bson.M, actorID string) (*models.Room, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}

	old, err := rs.roomsRepo.GetRoomByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := rs.roomsRepo.UpdateRoom(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	rs.audit.Log(ctx, "update", "room", id.Hex(), actorID, map[string]any{
		"old_values": old,
		"new_values": fields,
	})
	return updated, nil
}

// DeleteRoom refuses while an active booking still covers the room.
func (rs *RoomService) DeleteRoom(ctx context.Context, id primitive.ObjectID, actorID string) error {
	room, err := rs.roomsRepo.GetRoomByID(ctx, id)
	if err != nil {
		return err
	}

	active, err := rs.bookingsRepo.CountActiveForRoom(ctx, room.RoomNumber, primitive.NilObjectID)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: room %s has active bookings", models.ErrConflict, room.RoomNumber)
	}

	if err := rs.roomsRepo.DeleteRoom(ctx, id); err != nil {
		return err
	}

	rs.audit.Log(ctx, "delete", "room", id.Hex(), actorID, map[string]any{
		"deleted_values": room,
	})
	return nil
}
