package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram-project/backend/internal/service"
)

// respondServiceError translates service-layer errors into the HTTP
// shapes the clients expect: field maps for validation failures, an
// "errors" string for conflicts, "detail" for not-found.
func respondServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "subscription error"})
	case errors.Is(err, service.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "cannot subscribe to yourself"})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "shopping cart is empty"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, service.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"detail": "you do not have permission to perform this action"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
