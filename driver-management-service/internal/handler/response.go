package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondFail(c *gin.Context, status int, message string, errs []string) {
	body := gin.H{"success": false, "message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	c.AbortWithStatusJSON(status, body)
}

// respondError maps domain errors to status codes. Anything unknown is logged
// and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondFail(c, http.StatusBadRequest, "Validation failed", verrs)
	case errors.Is(err, models.ErrNotFound):
		respondFail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, models.ErrValidation):
		respondFail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrForbidden):
		respondFail(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, models.ErrConflict):
		respondFail(c, http.StatusConflict, err.Error(), nil)
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		respondFail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// bindJSON decodes and validates the body; an empty body is allowed when optional.
func bindJSON(c *gin.Context, dst interface{}, optional bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			respondFail(c, http.StatusBadRequest, "Invalid request body", nil)
			return false
		}
	}
	if errs := validation.Struct(dst); len(errs) > 0 {
		respondFail(c, http.StatusBadRequest, "Validation failed", errs)
		return false
	}
	return true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid "+name, nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

func callerOf(c *gin.Context) auth.Caller {
	caller, _ := auth.CallerFrom(c)
	return caller
}
