package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coparental/guardlink/src/api/config"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://app.guardlink.family"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(db, []byte(cfg.JWTSecret))
	propH := NewProposals(db, rdb)
	limiter := NewRateLimiter(60, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authH.Login)

		secured := v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)), RateLimitMiddleware(limiter))
		secured.POST("/proposals", propH.Create)
		secured.GET("/proposals/:id", propH.Get)
		secured.POST("/proposals/:id/respond", propH.Respond)
		secured.POST("/proposals/:id/dispute", propH.Dispute)
		secured.POST("/proposals/:id/cooling/cancel", propH.CancelCooling)
		secured.GET("/children/:id/proposals", propH.ListByChild)
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		admin.POST("/proposals/:id/resolve", propH.ResolveDispute)
	}
}
