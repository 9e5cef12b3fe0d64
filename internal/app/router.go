package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/handler"
	"fleet/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler      *handler.TripHandler
	ReportHandler    *handler.ReportHandler
	SchedulerHandler *handler.SchedulerHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Driver trip routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/trips", deps.TripHandler.StartTrip)
			drivers.POST("/:id/trips/scan", deps.TripHandler.ScanTicket)
			drivers.POST("/:id/trips/complete", deps.TripHandler.CompleteTrip)
			drivers.POST("/:id/trips/cancel", deps.TripHandler.CancelTrip)
			drivers.GET("/:id/trips/active", deps.TripHandler.GetActiveTrip)
		}

		// Reporting routes.
		reports := v1.Group("/reports")
		{
			reports.GET("/drivers/:id", deps.ReportHandler.DriverReport)
			reports.GET("/revenue", deps.ReportHandler.RevenueReport)
		}

		// Scheduler routes.
		scheduler := v1.Group("/scheduler")
		{
			scheduler.GET("/settings", deps.SchedulerHandler.GetSettings)
			scheduler.PUT("/settings", deps.SchedulerHandler.UpdateSettings)
			scheduler.POST("/run", deps.SchedulerHandler.RunNow)
			scheduler.GET("/executions", deps.SchedulerHandler.Executions)
		}
	}

	return router
}
