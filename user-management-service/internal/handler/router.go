package handler

import (
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *UserHandler, jwt *auth.JWTUtil) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware("user-management-service"))
	router.RedirectTrailingSlash = false

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	jwtMW := auth.JWTMiddleware(jwt)
	adminOnly := auth.RequireRoles(auth.RoleAdmin)

	users := router.Group("/users")
	{
		users.GET("/me", jwtMW, h.GetMe)
		users.PUT("/me/password", jwtMW, h.ChangePassword)
		users.GET("/drivers", jwtMW, auth.RequireRoles(auth.RoleCompany, auth.RoleAdmin), h.ListDrivers)
		users.GET("/:id", auth.InternalOrJWT(jwt), h.GetUserByID)
		users.GET("", jwtMW, adminOnly, h.GetAllUsers)
		users.PUT("/:id/block", jwtMW, adminOnly, h.BlockUser)
		users.PUT("/:id/unblock", jwtMW, adminOnly, h.UnblockUser)
	}

	router.PUT("/admin/users/:id/internal-update", auth.InternalOnly(), h.InternalUpdate)

	return router
}
