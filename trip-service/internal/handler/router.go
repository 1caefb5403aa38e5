package handler

import (
	"net/http"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *TripHandler, jwt *auth.JWTUtil, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware("trip-service"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	router.GET("/internal/trips", auth.InternalOnly(), h.ListInternal)

	trips := router.Group("/trips", auth.JWTMiddleware(jwt))
	{
		trips.GET("/my", auth.RequireRoles(auth.RoleDriver), h.GetMyTrips)
		trips.GET("/:id", h.GetTrip)
		trips.PUT("/:id/start", auth.RequireRoles(auth.RoleDriver), h.StartTrip)
		trips.PUT("/:id/complete", auth.RequireRoles(auth.RoleDriver), h.CompleteTrip)

		managers := trips.Group("", auth.RequireRoles(auth.RoleCompany, auth.RoleAdmin))
		{
			managers.POST("", h.CreateTrip)
			managers.GET("/company", h.GetCompanyTrips)
			managers.PUT("/:id/assign", h.AssignDriver)
			managers.PUT("/:id/cancel", h.CancelTrip)
		}
	}

	return router
}
