package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/harborview/hms/internal/helpers"
	"github.com/harborview/hms/internal/models"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", clientIP,
		)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			requestID, _ := c.Get("request_id")

			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)

			// Don't return error details in production
			c.JSON(500, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// AuthMiddleware verifies the access token from the access_token cookie or an
// Authorization bearer header and stores the claims in the context.
func AuthMiddleware(jwtSecret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			header := c.GetHeader("Authorization")
			if after, ok := strings.CutPrefix(header, "Bearer "); ok {
				token = after
			}
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("authentication required"))
			c.Abort()
			return
		}

		claims, err := helpers.ValidateToken(jwtSecret, token)
		if err != nil {
			logger.Info("token rejected", "error", err)
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// RequireAdmin allows only admin callers through. Must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("user")
		claims, ok := v.(*helpers.Claims)
		if !exists || !ok || !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
