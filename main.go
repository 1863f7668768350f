package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth_gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/candemir/movie-catalog-service/docs"
	"github.com/candemir/movie-catalog-service/internal/auth"
	"github.com/candemir/movie-catalog-service/internal/catalog"
	"github.com/candemir/movie-catalog-service/internal/config"
	"github.com/candemir/movie-catalog-service/internal/database"
	"github.com/candemir/movie-catalog-service/internal/metrics"
	"github.com/candemir/movie-catalog-service/internal/middleware"
	"github.com/candemir/movie-catalog-service/internal/token"
	"github.com/candemir/movie-catalog-service/internal/user"
)

// @title           Movie Catalog Service API
// @version         1.0
// @description     Movie catalog with session authentication via rotating refresh tokens.
//
// @host      localhost:8080
// @BasePath  /api/v1
func main() {
	// load config; a missing signing secret dies here, never at request time
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// init database
	db, err := database.Connect(cfg.Database.DSN())
	if err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	if err := db.AutoMigrate(
		&user.User{},
		&auth.RefreshTokenRecord{},
		&catalog.Genre{},
		&catalog.Actor{},
		&catalog.Movie{},
		&catalog.Review{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// init metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	// init Gin router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	//
	// SWAGGER (protected by Basic Auth, not JWT)
	//
	swaggerGroup := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
		cfg.Admin.Username: cfg.Admin.Password,
	}))
	swaggerGroup.GET("", ginSwagger.WrapHandler(swaggerFiles.Handler))
	swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	//
	// WIRE UP SERVICES
	//
	issuer := token.NewIssuer(
		cfg.Token.AccessTokenSecret,
		cfg.Token.Issuer,
		cfg.Token.Audience,
		time.Duration(cfg.Token.AccessTokenTTLMinutes)*time.Minute,
	)

	userRepo := user.NewUserRepository(db)
	userService := user.NewUserService(userRepo, logger)

	recordRepo := auth.NewRecordRepository(db)
	authService := auth.NewAuthenticationService(
		userService,
		recordRepo,
		issuer,
		logger,
		time.Duration(cfg.Token.RefreshTokenTTLDays)*24*time.Hour,
		cfg.Token.RevokeChainOnReuse,
	)

	catalogService := catalog.NewCatalogService(
		catalog.NewGenreRepository(db),
		catalog.NewActorRepository(db),
		catalog.NewMovieRepository(db),
		catalog.NewReviewRepository(db),
		logger,
	)

	api := router.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// auth endpoints sit behind a rate limiter; they are the brute-force surface
	limiter := tollbooth.NewLimiter(cfg.Server.AuthRateLimit, nil)
	authAPI := api.Group("/", tollbooth_gin.LimitHandler(limiter))
	auth.NewAuthHandler(authAPI, authService, logger)

	authedGroup := api.Group("/")
	authedGroup.Use(middleware.Auth(issuer, logger))

	adminGroup := api.Group("/")
	adminGroup.Use(
		middleware.Auth(issuer, logger),
		middleware.RequireRole(string(user.Admin), logger),
	)

	user.NewUserHandler(api, authedGroup, userService, logger)
	catalog.NewCatalogHandler(api, authedGroup, adminGroup, catalogService, logger)

	//
	// START SERVER
	//
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
}
