package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type ReservationHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	ListForProperty(c *gin.Context)
	Cancel(c *gin.Context)
	Finish(c *gin.Context)
	Delete(c *gin.Context)
	AdjustPoints(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkRead(c *gin.Context)
	Stream(c *gin.Context)
}

type PaymentsWebhookHTTP interface {
	Receive(c *gin.Context)
}

type Handlers struct {
	Reservations  ReservationHTTP
	Availability  AvailabilityHTTP
	Reviews       ReviewHTTP
	Notifications NotificationHTTP
	Webhook       PaymentsWebhookHTTP
	Identity      IdentityResolver
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Webhook != nil {
		// Processor callbacks carry no user identity.
		api.POST("/payments/webhook", h.Webhook.Receive)
	}

	identity := h.Identity
	if identity == nil {
		identity = HeaderIdentity{}
	}
	authed := api.Group("", Identity(identity, obsMW.Logger))
	if h.Reservations != nil {
		authed.POST("/reservations", h.Reservations.Create)
		authed.GET("/reservations", h.Reservations.ListMine)
		authed.GET("/reservations/:id", h.Reservations.Get)
		authed.POST("/reservations/:id/cancel", h.Reservations.Cancel)
		authed.POST("/reservations/:id/finish", h.Reservations.Finish)
		authed.DELETE("/reservations/:id", h.Reservations.Delete)
		authed.PATCH("/admin/reservations/:id/points", h.Reservations.AdjustPoints)
		authed.GET("/properties/:id/reservations", h.Reservations.ListForProperty)
	}
	if h.Availability != nil {
		authed.GET("/properties/:id/availability", h.Availability.Check)
	}
	if h.Reviews != nil {
		authed.POST("/reviews", h.Reviews.Submit)
		authed.PUT("/reviews/:id", h.Reviews.Update)
		authed.DELETE("/reviews/:id", h.Reviews.Delete)
	}
	if h.Notifications != nil {
		me := authed.Group("/me/notifications")
		me.GET("", h.Notifications.List)
		me.POST("/:id/read", h.Notifications.MarkRead)
		me.GET("/stream", h.Notifications.Stream)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID", "X-User-Role", "X-Account-Status"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
