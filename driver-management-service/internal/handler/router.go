package handler

import (
	"net/http"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	JobRequests *JobRequestHandler
	Employments *EmploymentHandler
	Ratings     *RatingHandler
}

func NewRouter(h Handlers, jwt *auth.JWTUtil, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware("driver-management-service"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	// service to service
	router.PATCH("/drivers/employments/driver/:driverId/assignment-status", auth.InternalOnly(), h.Employments.UpdateAssignmentStatus)

	company := auth.RequireRoles(auth.RoleCompany)
	driver := auth.RequireRoles(auth.RoleDriver)
	parties := auth.RequireRoles(auth.RoleCompany, auth.RoleDriver, auth.RoleAdmin)

	api := router.Group("/", auth.JWTMiddleware(jwt))

	jobRequests := api.Group("/job-requests")
	{
		jobRequests.POST("", company, h.JobRequests.Create)
		jobRequests.GET("/sent", company, h.JobRequests.ListSent)
		jobRequests.GET("/received", driver, h.JobRequests.ListReceived)
		jobRequests.GET("/:id", parties, h.JobRequests.Get)
		jobRequests.POST("/:id/respond", driver, h.JobRequests.Respond)
		jobRequests.POST("/:id/withdraw", company, h.JobRequests.Withdraw)
	}

	employments := api.Group("/employments")
	{
		employments.GET("/company", company, h.Employments.ListCompany)
		employments.GET("/me", driver, h.Employments.ListMine)
		employments.GET("/me/vehicle", driver, h.Employments.MyVehicle)
		employments.GET("/available-drivers", company, h.Employments.AvailableDrivers)
		employments.GET("/:id", parties, h.Employments.Get)
		employments.POST("/:id/terminate", company, h.Employments.Terminate)
		employments.POST("/:id/resign", driver, h.Employments.Resign)
		employments.PUT("/:id/vehicle", company, h.Employments.AssignVehicle)
	}

	ratings := api.Group("/ratings")
	{
		ratings.POST("", company, h.Ratings.Create)
		ratings.PUT("/:id", company, h.Ratings.Update)
		ratings.GET("/driver/:driverId", parties, h.Ratings.ListForDriver)
		ratings.GET("/driver/:driverId/summary", parties, h.Ratings.Summary)
	}

	return router
}
