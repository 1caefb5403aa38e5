package setup

import (
	"time"

	"fleet-app/api-gateway/internal/config"
	"fleet-app/api-gateway/internal/proxy"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type route struct {
	path        string
	target      string
	stripPrefix string
	addPrefix   string
}

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware("api-gateway"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/metrics", metrics.Handler())

	// Public routes
	r.Any("/api/auth/*proxyPath", proxy.CreateProxy(cfg.Upstreams.Users, "/api/auth", "/auth"))

	jwt := auth.NewJWTUtil(cfg.JWTSecret)

	secured := r.Group("/api", auth.JWTMiddleware(jwt))
	ConfigureServiceProxies(secured, cfg.Upstreams)

	admin := secured.Group("/admin", auth.RequireRoles(auth.RoleAdmin))
	ConfigureAdminProxies(admin, cfg.Upstreams)

	return r
}

func ConfigureServiceProxies(router *gin.RouterGroup, up config.Upstreams) {
	register(router, []route{
		{"/users", up.Users, "/api/users", "/users"},
		{"/job-requests", up.Drivers, "/api/job-requests", "/job-requests"},
		{"/employments", up.Drivers, "/api/employments", "/employments"},
		{"/ratings", up.Drivers, "/api/ratings", "/ratings"},
		{"/trips", up.Trips, "/api/trips", "/trips"},
		{"/vehicles", up.Vehicles, "/api/vehicles", "/api/vehicles"},
		{"/notifications", up.Notifications, "/api/notifications", "/notifications"},
	})
}

func ConfigureAdminProxies(router *gin.RouterGroup, up config.Upstreams) {
	register(router, []route{
		{"/users", up.Users, "/api/admin/users", "/users"},
	})
}

func register(router *gin.RouterGroup, routes []route) {
	for _, rt := range routes {
		h := proxy.CreateProxy(rt.target, rt.stripPrefix, rt.addPrefix)
		router.Any(rt.path, h)
		router.Any(rt.path+"/*proxyPath", h)
	}
}
