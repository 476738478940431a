package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortly-live/internal/apperr"
	"shortly-live/internal/middleware"
	"shortly-live/internal/models"
)

// bindJSON decodes the body into dst, pushing a ValidationError on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, apperr.Validation("Request body too large"))
		return false
	}
	fail(c, apperr.Validation("Invalid request body").WithDetails(models.ValidationMessages(err)))
	return false
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// currentUser is the authenticated user id; routes behind AuthMiddleware always have one.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		fail(c, apperr.Auth("User ID not found in token"))
	}
	return userID, ok
}
