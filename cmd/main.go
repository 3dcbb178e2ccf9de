package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/aifinder/aifinder-api/config"
	"github.com/aifinder/aifinder-api/internal/container"
	"github.com/aifinder/aifinder-api/internal/infrastructure/mongodb"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
	"github.com/aifinder/aifinder-api/internal/ratelimit"
	"github.com/aifinder/aifinder-api/internal/router"
	"github.com/aifinder/aifinder-api/pkg/groq"
	"github.com/aifinder/aifinder-api/pkg/helpers"
	"github.com/aifinder/aifinder-api/pkg/mailer"
	"github.com/aifinder/aifinder-api/pkg/pagemeta"
	"github.com/aifinder/aifinder-api/pkg/razorpay"
	"github.com/aifinder/aifinder-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// MongoDB: one cached connection manager, two logical stores
	conn := mongodb.NewConn(logger)
	toolsClient, err := conn.Client(ctx, mongodb.ConnConfig{
		URI:         cfg.MongoURITools,
		MaxRetries:  cfg.MongoMaxRetries,
		RetryDelay:  cfg.MongoRetryDelay,
		ConnTimeout: cfg.MongoConnTimeout,
		MaxPoolSize: cfg.MongoMaxPoolSize,
		MinPoolSize: cfg.MongoMinPoolSize,
	})
	if err != nil {
		log.Fatalf("failed to connect to tools database: %v", err)
	}
	usersClient, err := conn.Client(ctx, mongodb.ConnConfig{
		URI:         cfg.MongoURIUsers,
		MaxRetries:  cfg.MongoMaxRetries,
		RetryDelay:  cfg.MongoRetryDelay,
		ConnTimeout: cfg.MongoConnTimeout,
		MaxPoolSize: cfg.MongoMaxPoolSize,
		MinPoolSize: cfg.MongoMinPoolSize,
	})
	if err != nil {
		log.Fatalf("failed to connect to users database: %v", err)
	}
	defer conn.Reset(context.Background())

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// GCS (tool logos)
	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		log.Fatalf("failed to init GCS client: %v", err)
	}
	defer func() { _ = gcsClient.Close() }()

	// Elasticsearch (tool search)
	esClient, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("failed to init Elasticsearch client: %v", err)
	}

	// RabbitMQ publisher for outbound email jobs
	rabbitPub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("failed to init RabbitMQ publisher: %v", err)
	}
	defer rabbitPub.Close()

	// Fixed-window limits per route, keyed by client IP
	rateReg := ratelimit.NewRegistry(map[string]ratelimit.Limit{
		"/api/users/ensure":                   {Points: 5, Window: 5 * time.Minute},
		"/api/complain":                       {Points: 5, Window: 5 * time.Minute},
		"/api/tools/:id/save":                 {Points: 20, Window: time.Minute},
		"/api/user/folders":                   {Points: 10, Window: time.Minute},
		"/api/user/folders/:name":             {Points: 10, Window: time.Minute},
		"/api/user/folders/tools":             {Points: 10, Window: time.Minute},
		"/api/user/folders/:name/tools/:tool": {Points: 10, Window: time.Minute},
		"/api/metadata/about":                 {Points: 10, Window: time.Minute},
		"/api/metadata/keywords":              {Points: 10, Window: time.Minute},
	})

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetGCS(gcsClient)
	container.SetES(esClient)
	container.SetRabbitPub(rabbitPub)
	container.SetMailgun(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender))
	container.SetMongoConn(conn)
	container.SetToolStore(mongodb.NewStore(ctx, toolsClient, cfg.MongoToolsDBName, logger))
	container.SetUserStore(mongodb.NewStore(ctx, usersClient, cfg.MongoUsersDBName, logger))
	container.SetSession(helpers.NewSessionManager(cfg.SessionJWTSecret, 24*time.Hour))
	container.SetRateRegistry(rateReg)
	container.SetGateway(razorpay.NewGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret))
	container.SetGroq(groq.NewClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqTimeout))
	container.SetPageFetcher(pagemeta.NewFetcher(cfg.ScrapeTimeout))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RealIP())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RateLimit(rateReg, middleware.AllowPrivateIP()))
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	// Drop stale limiter windows in the background
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateReg.Prune()
			case <-pruneDone:
				return
			}
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	close(pruneDone)

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
