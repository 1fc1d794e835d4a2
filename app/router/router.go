package router

import (
	"tunneld/app/handler"
	"tunneld/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	statsHandler     *handler.StatsHandler
	schedulerHandler *handler.SchedulerHandler
}

// NewRouter creates a new Router
func NewRouter(statsHandler *handler.StatsHandler, schedulerHandler *handler.SchedulerHandler) *Router {
	return &Router{
		statsHandler:     statsHandler,
		schedulerHandler: schedulerHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	// V1 API - admin surface for the background pipeline
	v1 := engine.Group("/v1")
	{
		v1.GET("/stats", r.statsHandler.GetStats)

		sched := v1.Group("/scheduler")
		{
			sched.GET("/tasks", r.schedulerHandler.ListTasks)
			// mutating, requires the API key when one is configured
			sched.POST("/tasks/:name/execute", middleware.AuthMiddleware(), r.schedulerHandler.ForceExecute)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
