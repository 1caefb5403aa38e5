package handler

import (
	"errors"
	"log"
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/trip-service/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondFail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrValidation):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondFail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrConflict):
		respondFail(c, http.StatusConflict, err.Error())
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		respondFail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func tripID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid trip id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func callerOf(c *gin.Context) auth.Caller {
	caller, _ := auth.CallerFrom(c)
	return caller
}
