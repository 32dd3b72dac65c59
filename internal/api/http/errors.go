package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

// handleError translates domain errors to HTTP responses. Anything not in
// the taxonomy is an internal error and its details never reach the
// client.
func handleError(c *gin.Context, err error) {
	var dup *model.DuplicateError

	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, model.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrSlugExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "could not allocate a unique slug"})
	case errors.Is(err, model.ErrTransactionAborted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction aborted"})
	case errors.Is(err, model.ErrTransientStore):
		c.JSON(http.StatusBadGateway, gin.H{"error": "search backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
