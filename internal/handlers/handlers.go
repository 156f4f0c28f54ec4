package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentClaims returns the caller identity placed on the context by the auth
// middleware.
func currentClaims(c *gin.Context) (*helpers.Claims, bool) {
	v, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*helpers.Claims)
	return claims, ok
}

// objectIDParam parses the :id path segment.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(400, models.ErrorResponse("invalid id format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps the service error taxonomy to an HTTP status.
func respondError(c *gin.Context, err error) {
	c.JSON(models.StatusFor(err), models.ErrorResponse(err.Error()))
}
