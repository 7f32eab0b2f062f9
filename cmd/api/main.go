package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campushq/scheduling-api/api/swagger"
	"github.com/campushq/scheduling-api/internal/handler"
	"github.com/campushq/scheduling-api/internal/middleware"
	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/repository"
	"github.com/campushq/scheduling-api/internal/service"
	"github.com/campushq/scheduling-api/pkg/cache"
	"github.com/campushq/scheduling-api/pkg/config"
	"github.com/campushq/scheduling-api/pkg/database"
	"github.com/campushq/scheduling-api/pkg/export"
	"github.com/campushq/scheduling-api/pkg/logger"
	corsmiddleware "github.com/campushq/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/scheduling-api/pkg/middleware/requestid"
)

// @title CampusHQ Scheduling API
// @version 1.0.0
// @description Classroom scheduling, conflict validation and attendance
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

	// Redis is optional: the cache layer degrades to pass-through reads.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	}

	payload := validator.New()
	metrics := service.NewMetricsService()

	scheduleRepo := repository.NewScheduleRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	scheduleValidator := service.NewScheduleValidator(scheduleRepo, roomRepo, courseRepo)
	transactor := database.NewTransactor(db)
	scheduleSvc := service.NewScheduleService(scheduleRepo, scheduleValidator, transactor, cacheRepo, metrics, payload, logr, cfg.Scheduling, cfg.Timetable)
	catalogSvc := service.NewCatalogService(roomRepo, courseRepo, instructorRepo, enrollmentRepo)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, scheduleSvc, enrollmentRepo, payload, logr)
	exportSvc := service.NewExportService(scheduleSvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Scheduling)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler, models.RoleInstructor, models.RoleStudent)
	schedulers := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler, models.RoleInstructor)
	markers := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)

	schedules := api.Group("/schedules")
	{
		schedules.GET("", anyRole, scheduleHandler.List)
		schedules.POST("", schedulers, scheduleHandler.Create)
		schedules.POST("/bulk", schedulers, scheduleHandler.BulkCreate)
		schedules.PUT("/upsert", schedulers, scheduleHandler.Upsert)
		schedules.GET("/export", staff, exportHandler.Export)
		schedules.GET("/:id", anyRole, scheduleHandler.Get)
		schedules.PUT("/:id", schedulers, scheduleHandler.Update)
		schedules.DELETE("/:id", schedulers, scheduleHandler.Cancel)
		schedules.GET("/:id/attendance", staff, attendanceHandler.List)
		schedules.POST("/:id/attendance", markers, attendanceHandler.Mark)
	}

	api.GET("/rooms", anyRole, catalogHandler.ListRooms)
	api.GET("/rooms/:id", anyRole, catalogHandler.GetRoom)
	api.GET("/courses", anyRole, catalogHandler.ListCourses)
	api.GET("/courses/:id", anyRole, catalogHandler.GetCourse)
	api.GET("/courses/:id/roster", staff, catalogHandler.ListCourseRoster)
	api.GET("/instructors", anyRole, catalogHandler.ListInstructors)
	api.GET("/instructors/:id", anyRole, catalogHandler.GetInstructor)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
