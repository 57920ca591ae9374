package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushub/timetable-api/api/swagger"
	"github.com/campushub/timetable-api/internal/handler"
	"github.com/campushub/timetable-api/internal/middleware"
	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/internal/repository"
	"github.com/campushub/timetable-api/internal/service"
	"github.com/campushub/timetable-api/pkg/cache"
	"github.com/campushub/timetable-api/pkg/config"
	"github.com/campushub/timetable-api/pkg/database"
	"github.com/campushub/timetable-api/pkg/logger"
	corsmiddleware "github.com/campushub/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/timetable-api/pkg/middleware/requestid"
)

// @title CampusHub Timetable API
// @version 1.0.0
// @description Academic timetable scheduling and conflict detection service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)

	// Report caching degrades to pass-through when Redis is unreachable.
	reportCache := service.NewReportCacheService(nil, cfg.Reports, metrics, logr)
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			reportCache = service.NewReportCacheService(repository.NewCacheRepository(redisClient), cfg.Reports, metrics, logr)
		}
	}

	// Services.
	auditSvc := service.NewAuditService(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campushub-timetable-api",
	})
	conflictSvc := service.NewConflictService(entryRepo, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, entryRepo, auditSvc, validate, logr)
	entrySvc := service.NewEntryService(entryRepo, timetableRepo, courseRepo, roomRepo, lecturerRepo, conflictSvc, reportCache, auditSvc, validate, logr)
	analysisSvc := service.NewAnalysisService(entryRepo, roomRepo, lecturerRepo, timetableRepo, reportCache, cfg.Scheduling, logr)
	suggestionSvc := service.NewSuggestionService(entryRepo, roomRepo, courseRepo, timetableRepo, cfg.Scheduling, validate, logr)
	exportSvc := service.NewExportService(entryRepo, timetableRepo, courseRepo, roomRepo, lecturerRepo, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, lecturerRepo, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, analysisSvc, suggestionSvc, exportSvc, metrics)
	entryHandler := handler.NewEntryHandler(entrySvc, metrics)
	roomHandler := handler.NewRoomHandler(roomSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	lecturerHandler := handler.NewLecturerHandler(lecturerSvc, analysisSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.PUT("/auth/password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	// Every authenticated role can read.
	authed.GET("/timetables", timetableHandler.List)
	authed.GET("/timetables/:id", timetableHandler.Get)
	authed.GET("/timetables/:id/entries", entryHandler.List)
	authed.GET("/timetables/:id/report", timetableHandler.Report)
	authed.GET("/timetables/:id/validation", timetableHandler.Validate)
	authed.GET("/entries/:entryId", entryHandler.Get)
	authed.GET("/rooms", roomHandler.List)
	authed.GET("/rooms/:id", roomHandler.Get)
	authed.GET("/courses", courseHandler.List)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.GET("/lecturers", lecturerHandler.List)
	authed.GET("/lecturers/:id", lecturerHandler.Get)
	authed.GET("/lecturers/:id/workload", lecturerHandler.Workload)

	if cfg.Export.Enabled {
		authed.GET("/timetables/:id/export", timetableHandler.Export)
	}

	// Scheduling writes are restricted to scheduling staff.
	scheduling := authed.Group("")
	scheduling.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleScheduler))

	scheduling.POST("/timetables", timetableHandler.Create)
	scheduling.PUT("/timetables/:id", timetableHandler.Update)
	scheduling.DELETE("/timetables/:id", timetableHandler.Delete)
	scheduling.POST("/timetables/:id/publish", timetableHandler.Publish)
	scheduling.POST("/timetables/:id/unpublish", timetableHandler.Unpublish)
	scheduling.POST("/timetables/:id/archive", timetableHandler.Archive)
	scheduling.POST("/timetables/:id/suggestions", timetableHandler.Suggest)
	scheduling.POST("/timetables/:id/entries", entryHandler.Create)
	scheduling.PUT("/entries/:entryId", entryHandler.Update)
	scheduling.DELETE("/entries/:entryId", entryHandler.Delete)

	// Master data management is admin territory.
	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	admin.POST("/rooms", roomHandler.Create)
	admin.PUT("/rooms/:id", roomHandler.Update)
	admin.PUT("/rooms/:id/availability", roomHandler.SetAvailability)
	admin.DELETE("/rooms/:id", roomHandler.Deactivate)
	admin.POST("/courses", courseHandler.Create)
	admin.PUT("/courses/:id", courseHandler.Update)
	admin.DELETE("/courses/:id", courseHandler.Delete)
	admin.POST("/lecturers", lecturerHandler.Create)
	admin.PUT("/lecturers/:id", lecturerHandler.Update)
	admin.DELETE("/lecturers/:id", lecturerHandler.Delete)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
