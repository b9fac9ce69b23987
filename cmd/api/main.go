package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edusphere/core-api/api/swagger"
	"github.com/edusphere/core-api/internal/handler"
	"github.com/edusphere/core-api/internal/middleware"
	"github.com/edusphere/core-api/internal/models"
	"github.com/edusphere/core-api/internal/repository"
	"github.com/edusphere/core-api/internal/service"
	"github.com/edusphere/core-api/pkg/cache"
	"github.com/edusphere/core-api/pkg/config"
	"github.com/edusphere/core-api/pkg/database"
	"github.com/edusphere/core-api/pkg/logger"
	corsmiddleware "github.com/edusphere/core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusphere/core-api/pkg/middleware/requestid"
)

// @title EduSphere Core API
// @version 1.0.0
// @description Enrollment, payment, access and assessment services for the learning platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Cache.TTL, logr, false)
	}

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	accessRepo := repository.NewAccessHistoryRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, paymentSvc, validate, logr)
	accessSvc := service.NewAccessService(accessRepo, enrollmentRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, questionRepo, cacheSvc, validate, logr)
	gradingSvc := service.NewGradingService(submissionRepo, gradeRepo, assessmentSvc, metricsSvc, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, assessmentRepo, assessmentSvc, gradeRepo, gradingSvc, validate, logr)
	reportSvc := service.NewReportService(gradeRepo, assessmentRepo, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	accessHandler := handler.NewAccessHandler(accessSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, reportSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	enrollments := api.Group("/enrollments")
	{
		enrollments.POST("", enrollmentHandler.Create)
		enrollments.GET("", enrollmentHandler.List)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.PUT("/:id", staffOnly, enrollmentHandler.Update)
		enrollments.POST("/:id/cancel", enrollmentHandler.Cancel)
		enrollments.DELETE("/:id", adminOnly, enrollmentHandler.Delete)
		enrollments.GET("/:id/payment", paymentHandler.GetByEnrollment)
		enrollments.POST("/:id/payment/process", paymentHandler.Process)
	}

	access := api.Group("/access-history")
	{
		access.POST("", accessHandler.Record)
		access.GET("", accessHandler.List)
	}

	assessments := api.Group("/assessments")
	{
		assessments.POST("", staffOnly, assessmentHandler.Create)
		assessments.GET("/:id", assessmentHandler.Get)
		assessments.GET("/:id/questions", assessmentHandler.ListQuestions)
		assessments.GET("/:id/submissions", staffOnly, submissionHandler.ListByAssessment)
		if cfg.Reports.Enabled {
			assessments.GET("/:id/report", staffOnly, assessmentHandler.Report)
		}
	}

	api.GET("/courses/:courseId/assessments", assessmentHandler.ListByCourse)
	api.POST("/questions", staffOnly, assessmentHandler.CreateQuestion)

	submissions := api.Group("/submissions")
	{
		submissions.POST("", submissionHandler.Create)
		submissions.GET("/:id", submissionHandler.Get)
	}

	api.GET("/users/:userId/submissions", submissionHandler.ListByUser)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
