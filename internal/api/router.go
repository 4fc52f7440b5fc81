package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"drone-dispatch-backend/config"
	"drone-dispatch-backend/internal/alert"
	"drone-dispatch-backend/internal/dispatch"
	"drone-dispatch-backend/internal/mw"
	"drone-dispatch-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, engine *dispatch.Engine, alerts *alert.WorkerPool,
	webpushOptions *webpush.Options, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	tokenTTL := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	handler := NewHandler(s, engine, alerts, webpushOptions, cfg.Auth.JWTSecret, tokenTTL)

	rateLimiter := mw.RateLimiter(cfg.Auth.JWTSecret,
		rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	auth := mw.Auth(cfg.Auth.JWTSecret)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public surface
		api.GET("/hives", caching, handler.GetHives)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		// The telemetry feed authenticates at the network layer, not here.
		api.POST("/drones/battery", handler.PostBattery)

		// Caller surface
		drones := api.Group("/drones", auth)
		{
			drones.POST("/routes", handler.PostRoutes)
			drones.POST("/cancel", handler.PostCancel)
			drones.POST("/match", handler.PostMatch)
			drones.POST("/end", handler.PostEnd)
		}

		settings := api.Group("/settings", auth)
		{
			settings.GET("/endpos", handler.GetEndPos)
			settings.PUT("/endpos", handler.PutEndPos)
			settings.GET("/guardians", handler.GetGuardians)
			settings.POST("/guardians", handler.PostGuardian)
			settings.PUT("/guardians/:id", handler.PutGuardian)
			settings.DELETE("/guardians/:id", handler.DeleteGuardian)
			settings.POST("/emergency", handler.PostEmergency)
		}

		subs := api.Group("/subscriptions", auth)
		{
			subs.GET("", handler.GetSubscriptions)
			subs.PUT("", handler.PutSubscription)
			subs.DELETE("", handler.DeleteSubscription)
		}

		admin := api.Group("/admin", auth, mw.RequireAdmin())
		{
			admin.POST("/hives", handler.PostHive)
			admin.POST("/drones", handler.PostDrone)
			admin.POST("/users", handler.PostUser)
		}
	}

	return r
}
