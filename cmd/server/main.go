package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/PandaDev0069/TUIZ-sub003/internal/config"
	"github.com/PandaDev0069/TUIZ-sub003/internal/database"
	"github.com/PandaDev0069/TUIZ-sub003/internal/game"
	"github.com/PandaDev0069/TUIZ-sub003/internal/handlers"
	"github.com/PandaDev0069/TUIZ-sub003/internal/middleware"
	"github.com/PandaDev0069/TUIZ-sub003/internal/services"
	"github.com/PandaDev0069/TUIZ-sub003/internal/store"
	"github.com/PandaDev0069/TUIZ-sub003/internal/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db := database.Connect(cfg, logger)
	database.AutoMigrate(db, logger)

	// Each instance gets its own origin id so Redis fan-out can skip
	// events the instance already delivered locally.
	hub := ws.NewHub(uuid.New().String(), logger)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		pubsub := ws.NewRedisPubSub(rdb, logger)
		hub.SetPubSub(pubsub, pubsub)
		logger.Info("redis pub/sub enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, running single-instance")
	}

	gameStore := store.NewGameStore(db, logger)
	registry := game.NewRegistry()
	engine := game.NewEngine(registry, gameStore, hub, logger)

	go sweepIdleSessions(registry, cfg, logger)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	setService := services.NewQuestionSetService(db)

	authHandler := handlers.NewAuthHandler(authService)
	setHandler := handlers.NewQuestionSetHandler(setService)
	gameHandler := handlers.NewGameHandler(setService, engine, gameStore)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws", ws.ServeWS(hub, engine, logger))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		sets := api.Group("/question-sets")
		sets.Use(middleware.JWTAuth(authService))
		{
			sets.GET("", setHandler.List)
			sets.POST("", setHandler.Create)
			sets.GET("/:id", setHandler.Get)
			sets.PUT("/:id", setHandler.Update)
			sets.DELETE("/:id", setHandler.Delete)
		}

		games := api.Group("/games")
		{
			games.POST("", middleware.JWTAuth(authService), gameHandler.Create)
			games.GET("/:code/state", gameHandler.State)
			games.GET("/:code/results", gameHandler.Results)
		}
	}

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// sweepIdleSessions evicts sessions with no activity past the idle
// window. Finalizing sessions are never evicted mid-flight.
func sweepIdleSessions(registry *game.Registry, cfg *config.Config, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		if n := registry.Sweep(cfg.SessionIdle); n > 0 {
			logger.Info("idle sessions evicted", zap.Int("count", n))
		}
	}
}
