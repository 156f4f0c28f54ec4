package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborview/hms/internal/models"
	"github.com/harborview/hms/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tokenCookieMaxAge matches the access token TTL.
const tokenCookieMaxAge = 3600

// registerRequest is the signup body. The password is bound here rather than
// on models.User, whose password field never serializes.
type registerRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		// Self-registration; role elevation requires an authenticated admin.
		actorIsAdmin := false
		if claims, ok := currentClaims(c); ok {
			actorIsAdmin = claims.IsAdmin()
		}

		user := models.User{
			Username: req.Username,
			FullName: req.FullName,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Role:     req.Role,
		}
		created, err := u.Register(c.Request.Context(), &user, actorIsAdmin)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "account created"))
	}
}

func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("username and password are required"))
			return
		}

		auth, err := u.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid username or password"))
			return
		}

		c.SetCookie("access_token", auth.Token, tokenCookieMaxAge, "/", "", secureCookies, true)

		c.JSON(http.StatusOK, models.SuccessResponse(auth, "login successful"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("access_token", "", -1, "/", "", secureCookies, true)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "logged out successfully"))
	}
}

// Profile returns the authenticated caller's own account.
func Profile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid user id in token"))
			return
		}

		user, err := u.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}
