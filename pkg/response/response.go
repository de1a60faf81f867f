package response

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/ratelimiter"
	"anoa.com/blogapp/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const UserIDKey = "user_id"

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, apperror.ErrUnauthorized
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return 0, apperror.ErrUnauthorized
	}
	return id, nil
}

// Error writes err as {"error": message}. Unclassified errors are logged and
// answered with a generic message.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		}).WithError(err).Error("internal error")
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	var rateErr *ratelimiter.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateErr.RetryAfter.Seconds()))
	}

	msg := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	c.JSON(code, gin.H{"error": msg})
}

// BindError answers a failed ShouldBind* call with 400.
func BindError(c *gin.Context, err error) {
	if fields := validator.FormatValidationErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// IDParam parses a numeric path parameter. Range checks are left to the
// services so they can answer with their own messages.
func IDParam(c *gin.Context, name string) (int64, error) {
	return parseID(c.Param(name), name)
}

// IDQuery parses a numeric query parameter.
func IDQuery(c *gin.Context, name string) (int64, error) {
	return parseID(c.Query(name), name)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.BadRequest(fmt.Sprintf("%s must be a number", name))
	}
	return id, nil
}
