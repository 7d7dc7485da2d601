package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/safewalk-backend/internal/auth"
	"github.com/jengzang/safewalk-backend/internal/handler"
	"github.com/jengzang/safewalk-backend/internal/middleware"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

// Dependencies 路由所需的组件
type Dependencies struct {
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	RateLimiter *middleware.RateLimiter
	JWT         *auth.JWTManager
	AuthEnabled bool

	// metrics 端点, nil 时不挂载
	MetricsHandler http.Handler

	Points  *handler.PointHandler
	Zones   *handler.ZoneHandler
	Auth    *handler.AuthHandler
	Signals *handler.SignalHandler
	Health  *handler.HealthHandler
}

// PrometheusHandler serves the default registry.
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// SetupRouter 设置路由
func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Logger != nil {
		r.Use(middleware.Logger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", d.Health.Health)
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})

	// API 路由组
	api := r.Group("/api")
	if d.RateLimiter != nil {
		api.Use(middleware.RateLimit(d.RateLimiter))
	}
	api.GET("/health", d.Health.Health)

	// 身份认证, 公开
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Auth.Register)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.GET("/me", middleware.RequireAuth(d.JWT), d.Auth.Me)
	}

	// 开启认证后, 下面的路由都需要 JWT
	protected := api.Group("")
	if d.AuthEnabled {
		protected.Use(middleware.RequireAuth(d.JWT))
	}

	// 危险点位
	points := protected.Group("/points")
	{
		points.POST("", d.Points.CreatePoint)
		points.GET("/:uuid", d.Points.GetPointsByUUID)
		points.DELETE("", d.Points.DeletePoint)
	}

	// 危险区域查询
	protected.POST("/danger-zones", d.Zones.GetDangerZones)

	// 网格安全信号
	api.POST("/signals", d.Signals.SubmitSignal)
	api.GET("/signals/:gridId", d.Signals.GetSignalStats)
	api.GET("/grids/locate", d.Signals.LocateGrid)

	return r
}
