package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"fleet-app/notification-service/internal/models"
	"fleet-app/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	SendNotification(ctx context.Context, n *models.Notification) error
	GetNotifications(ctx context.Context, userID string, limit, offset int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	service NotificationService
}

func NewHandler(service NotificationService) *Handler {
	return &Handler{service: service}
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// POST /notifications/internal/create
func (h *Handler) CreateInternal(c *gin.Context) {
	var n models.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	n.ID = primitive.NilObjectID
	if err := h.service.SendNotification(c.Request.Context(), &n); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": n})
}

// GET /notifications?limit=&offset=
func (h *Handler) GetNotifications(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	notifs, err := h.service.GetNotifications(c.Request.Context(), caller.ID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifs})
}

// GET /notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	n, err := h.service.UnreadCount(c.Request.Context(), caller.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"count": n}})
}

// PUT /notifications/:id/read
func (h *Handler) MarkAsRead(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "notification ID is invalid")
		return
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.MarkAsRead(c.Request.Context(), id, caller.ID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "marked as read"})
}
