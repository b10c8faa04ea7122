package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/revlinehq/revline-api/handlers"
	"github.com/revlinehq/revline-api/internal/authgw"
	"github.com/revlinehq/revline-api/internal/config"
	"github.com/revlinehq/revline-api/internal/database"
	"github.com/revlinehq/revline-api/internal/profile"
	"github.com/revlinehq/revline-api/internal/roles"
	"github.com/revlinehq/revline-api/internal/session"
	"github.com/revlinehq/revline-api/internal/storage"
	"github.com/revlinehq/revline-api/internal/upload"
	"github.com/revlinehq/revline-api/pkg/logger"
	"github.com/revlinehq/revline-api/pkg/metrics"
	"github.com/revlinehq/revline-api/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: auth=%v mongo=%v redis=%v storage=%v",
		cfg.Auth.IssuerURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Endpoint != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis carries the auth platform's state-change notifications; the store
	// falls back to the initial session fetch alone when it is unavailable.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	mongoClient, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	minioClient, err := storage.NewClient(&cfg.Storage)
	if err != nil {
		logger.Fatalf("failed to create storage client: %v", err)
	}
	photoBucket, err := storage.NewBucket(minioClient, cfg.Storage.PhotoBucket)
	if err != nil {
		logger.Fatalf("failed to prepare photo bucket: %v", err)
	}
	thumbBucket, err := storage.NewBucket(minioClient, cfg.Storage.ThumbBucket)
	if err != nil {
		logger.Fatalf("failed to prepare thumbnail bucket: %v", err)
	}

	gw, err := authgw.New(ctx, &cfg.Auth, rdb)
	if err != nil {
		logger.Fatalf("failed to create auth gateway: %v", err)
	}

	profileSvc := profile.NewService(profile.NewMongoRepository(db.Collection("profiles")), gw)
	roleSvc := roles.NewService(roles.NewMongoRepository(db.Collection("user_roles")))

	store := session.NewStore(gw, profileSvc, roleSvc)
	store.Start(ctx)
	defer store.Close()

	uploadSvc := upload.NewService(photoBucket, thumbBucket, upload.NewMongoRepository(db.Collection("photos")))

	// metrics registry and endpoint
	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "uptime": time.Since(startTime).String()})
	})

	// readiness: 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := gin.H{}
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pctx, nil); err != nil {
			deps["mongo"] = false
			ready = false
		} else {
			deps["mongo"] = true
		}
		deps["events"] = rdb != nil
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"ready": ready, "deps": deps})
	})

	api := r.Group("/api")
	handlers.NewSessionHandler(store).Register(api)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(gw.Verifier()))
	if cfg.RateLimit.Enabled {
		if rdb != nil {
			protected.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Minute))
		} else {
			protected.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handlers.NewPhotoHandler(uploadSvc, store, thumbBucket).Register(protected)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
