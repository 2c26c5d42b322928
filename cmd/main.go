package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nmthanh/tutorhub/config"
	"github.com/nmthanh/tutorhub/database"
	_ "github.com/nmthanh/tutorhub/docs" // Swagger docs - auto-generated
	instructorctrl "github.com/nmthanh/tutorhub/internal/controller/instructor"
	notificationctrl "github.com/nmthanh/tutorhub/internal/controller/notification"
	studentctrl "github.com/nmthanh/tutorhub/internal/controller/student"
	"github.com/nmthanh/tutorhub/internal/logger"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/notify"
	"github.com/nmthanh/tutorhub/internal/repository"
	"github.com/nmthanh/tutorhub/internal/service"
	"github.com/nmthanh/tutorhub/internal/stream"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title TutorHub Assessment & Scheduling API
// @version 1.0
// @description Assessment state machine, timetable conflict checking, attempt timers and notification fan-out for a tutoring platform.
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			stream.NewBus,
		),

		fx.Provide(
			repository.NewQuizRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewTimetableRepository,
			repository.NewNotificationRepository,
			repository.NewEnrollmentRepository,
		),

		fx.Provide(
			service.NewNotificationService,
			service.NewQuizService,
			func(
				quizRepo repository.QuizRepository,
				attemptRepo repository.AttemptRepository,
				answerRepo repository.AnswerRepository,
				notificationSvc service.NotificationService,
				cfg *config.Config,
			) service.AttemptService {
				tick := time.Duration(cfg.Timer.TickSeconds) * time.Second
				return service.NewAttemptService(quizRepo, attemptRepo, answerRepo, notificationSvc, tick)
			},
			service.NewScheduleService,
		),

		fx.Provide(
			instructorctrl.NewInstructorController,
			studentctrl.NewStudentController,
			func(
				notificationSvc service.NotificationService,
				bus *stream.Bus,
				notificationRepo repository.NotificationRepository,
				cfg *config.Config,
			) *notificationctrl.NotificationController {
				var store notify.Store = notificationRepo
				return notificationctrl.NewNotificationController(
					notificationSvc, bus, store,
					cfg.Notification.FeedSize, cfg.Notification.FetchWindow,
				)
			},
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID", "X-User-Role"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the API routes and manages the HTTP
// server plus the attempt-timer teardown through the fx lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	instructorCtrl *instructorctrl.InstructorController,
	studentCtrl *studentctrl.StudentController,
	notificationCtrl *notificationctrl.NotificationController,
	attemptSvc service.AttemptService,
) {
	api := router.Group("/api/v1")
	instructorCtrl.RegisterRoutes(api)
	studentCtrl.RegisterRoutes(api)
	notificationCtrl.RegisterRoutes(api)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("TutorHub API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			attemptSvc.StopTimers()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.Answer{},
		&model.TimetableSession{},
		&model.Notification{},
		&model.Enrollment{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
