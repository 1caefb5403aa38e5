package handler

import (
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, jwt *auth.JWTUtil) *gin.Engine {
	router := gin.Default()
	router.Use(metrics.GinMiddleware("notification-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	router.POST("/notifications/internal/create", auth.InternalOnly(), h.CreateInternal)

	api := router.Group("/notifications", auth.JWTMiddleware(jwt))
	{
		api.GET("", h.GetNotifications)
		api.GET("/unread-count", h.UnreadCount)
		api.PUT("/:id/read", h.MarkAsRead)
	}
	return router
}
