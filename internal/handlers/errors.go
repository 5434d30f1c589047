package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/queue"
	"github.com/imyashkale/geoconnect/internal/services"
)

// statusFor maps service errors to HTTP status codes and error codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, services.ErrServerNotFound), errors.Is(err, services.ErrConnectionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrServerExists), errors.Is(err, services.ErrConnectionExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrNoCredentials):
		return http.StatusConflict, "no_credentials"
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err as a JSON error body. Internal errors are logged
// and their details withheld.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithFields(map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("Request failed")
		message = "An internal error occurred"
	}
	c.JSON(status, models.ErrorResponse{Error: code, Message: message})
}

// userID returns the authenticated user id set by the auth middleware
func userID(c *gin.Context) (string, bool) {
	id := c.GetString("user_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "User ID not found in context",
		})
		return "", false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "bad_request", Message: err.Error()})
}
