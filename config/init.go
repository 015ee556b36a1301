package config

import (
	"fmt"
	"net/http"

	"dormitory/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// InitApp connects the backing stores and builds the router, the websocket
// hub and the scheduler.
func InitApp(cfg *Config, logger *zap.Logger) (*gin.Engine, *melody.Melody, *cron.Cron, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", "X-Request-ID")
	configCors.AllowCredentials = true
	if len(cfg.Server.AllowOrigins) > 0 {
		configCors.AllowOrigins = cfg.Server.AllowOrigins
	} else {
		configCors.AllowOriginFunc = func(origin string) bool {
			return true
		}
	}
	router.Use(cors.New(configCors))

	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, nil, nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	if err := initComponents(cfg, logger); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	m := melody.New()
	m.Config.MaxMessageSize = 1024

	c := cron.New()

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	return router, m, c, nil
}

func initComponents(cfg *Config, logger *zap.Logger) error {
	if _, err := ConnectDB(&cfg.Database, logger); err != nil {
		return err
	}

	rdb, err := ConnectRedis(&cfg.Redis, logger)
	if err != nil {
		// The cache is an accelerator only; run without it.
		logger.Warn("Failed to connect to Redis, caching disabled", zap.Error(err))
		rdb = nil
	}
	RedisClient = rdb

	logger.Info("All components initialized successfully")
	return nil
}
