package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
	"go.mongodb.org/mongo-driver/bson"
)

// SearchRooms is the public room search. Supports type, min_price, max_price
// and an optional check_in/check_out pair that excludes rooms with an active
// booking overlapping the range.
func SearchRooms(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.RoomFilter
		filter.Type = c.Query("type")

		if v := c.Query("min_price"); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid min_price"))
				return
			}
			filter.MinPrice = &p
		}
		if v := c.Query("max_price"); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid max_price"))
				return
			}
			filter.MaxPrice = &p
		}

		checkInStr, checkOutStr := c.Query("check_in"), c.Query("check_out")
		if (checkInStr == "") != (checkOutStr == "") {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("check_in and check_out must be provided together"))
			return
		}
		if checkInStr != "" {
			checkIn, err := helpers.ParseDate(checkInStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
				return
			}
			checkOut, err := helpers.ParseDate(checkOutStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
				return
			}
			if !checkIn.Before(checkOut) {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("check_out must be after check_in"))
				return
			}
			filter.CheckIn = &checkIn
			filter.CheckOut = &checkOut
		}

		rooms, err := r.SearchRooms(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rooms, ""))
	}
}

func AvailableRooms(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := r.AvailableRooms(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rooms, ""))
	}
}

func ListRooms(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := r.ListRooms(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rooms, ""))
	}
}

func GetRoom(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := r.GetRoom(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(room, ""))
	}
}

func CreateRoom(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var room models.Room
		if err := c.ShouldBindJSON(&room); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		claims, _ := currentClaims(c)

		created, err := r.CreateRoom(c.Request.Context(), &room, claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "room created"))
	}
}

func UpdateRoom(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var fields bson.M
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		claims, _ := currentClaims(c)

		updated, err := r.UpdateRoom(c.Request.Context(), id, fields, claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "room updated"))
	}
}

func DeleteRoom(r *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		claims, _ := currentClaims(c)

		if err := r.DeleteRoom(c.Request.Context(), id, claims.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "room deleted"))
	}
}
