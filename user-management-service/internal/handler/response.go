package handler

import (
	"errors"
	"log"
	"net/http"

	"fleet-app/user-management-service/internal/models"

	"github.com/gin-gonic/gin"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondFail(c *gin.Context, status int, message string, errs []string) {
	body := gin.H{"success": false, "message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	c.AbortWithStatusJSON(status, body)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondFail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, models.ErrValidation):
		respondFail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrConflict):
		respondFail(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, models.ErrInvalidCredentials):
		respondFail(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, models.ErrBanned):
		respondFail(c, http.StatusForbidden, err.Error(), nil)
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		respondFail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
