package handler

import (
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/middleware"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Health     *HealthHandler
	Event      *EventHandler
	Resource   *ResourceHandler
	RSVP       *RSVPHandler
	Allocation *AllocationHandler
	Calendar   *CalendarHandler
}

// RouterConfig contains configuration for the router
type RouterConfig struct {
	// Idempotency replays PUT responses when a Redis client is set
	Idempotency    middleware.RedisClient
	IdempotencyTTL time.Duration
	Logger         *logger.Logger
	Tracing        bool
}

// NewRouter mounts the API under /api/v1
func NewRouter(h *Handlers, cfg *RouterConfig) *gin.Engine {
	if cfg == nil {
		cfg = &RouterConfig{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing {
		router.Use(telemetry.TracingMiddleware())
	}
	if cfg.Logger != nil {
		router.Use(middleware.RequestLogger(cfg.Logger))
	}
	router.Use(metrics.HTTPMiddleware())

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	idempotent := middleware.Idempotency(&middleware.IdempotencyConfig{
		Redis: cfg.Idempotency,
		TTL:   cfg.IdempotencyTTL,
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(false))
	{
		events := v1.Group("/events")
		events.POST("", h.Event.Create)
		events.GET("/:id", h.Event.Get)
		events.POST("/:id/approve", h.Event.Approve)

		events.PUT("/:id/rsvp", idempotent, h.RSVP.Respond)
		events.GET("/:id/rsvps", h.RSVP.List)

		events.GET("/:id/resources", h.Allocation.List)
		events.PUT("/:id/resources/:resource_id", idempotent, h.Allocation.Request)
		events.POST("/:id/resources/:resource_id/review", h.Allocation.Review)
		events.DELETE("/:id/resources/:resource_id", h.Allocation.Cancel)

		events.GET("/:id/occurrences", h.Calendar.List)
		events.GET("/:id/occurrences/:date", h.Calendar.Get)
		events.GET("/:id/calendar.ics", h.Calendar.ICS)

		resources := v1.Group("/resources")
		resources.POST("", h.Resource.Create)
		resources.GET("/:id", h.Resource.Get)
	}

	return router
}
