package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
	"go.mongodb.org/mongo-driver/bson"
)

func ListServices(s *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := s.ListServices(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(list, ""))
	}
}

func CreateService(s *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var service models.Service
		if err := c.ShouldBindJSON(&service); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		claims, _ := currentClaims(c)

		created, err := s.CreateService(c.Request.Context(), &service, claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "service created"))
	}
}

func UpdateService(s *services.CatalogService) gin.HandlerFunc {
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

		updated, err := s.UpdateService(c.Request.Context(), id, fields, claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "service updated"))
	}
}

func DeleteService(s *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		claims, _ := currentClaims(c)

		if err := s.DeleteService(c.Request.Context(), id, claims.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "service deleted"))
	}
}
