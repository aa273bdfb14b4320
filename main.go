package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/configs"
	"github.com/joeyave/club-events/controller"
	"github.com/joeyave/club-events/helpers"
	"github.com/joeyave/club-events/migrations"
	"github.com/joeyave/club-events/notifier"
	"github.com/joeyave/club-events/repository"
	"github.com/joeyave/club-events/service"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	helpers.SetupLogger(cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("Error pinging MongoDB")
	}

	db := mongoClient.Database(cfg.Mongo.Name)
	if err := migrations.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Error creating indexes")
	}

	eventRepository := repository.NewEventRepository(db)
	clubRepository := repository.NewClubRepository(db)
	userRepository := repository.NewUserRepository(db)
	registrationRepository := repository.NewRegistrationRepository(db)
	attendanceRepository := repository.NewAttendanceRepository(db)

	var reminderNotifier service.Notifier = notifier.Log{}
	if cfg.Reminder.MailRelayURL != "" {
		reminderNotifier = notifier.NewMailRelay(cfg.Reminder.MailRelayURL, cfg.Reminder.Retries)
	} else {
		log.Warn().Msg("MAIL_RELAY_URL is not set, reminders will only be logged")
	}

	eventService := service.NewEventService(eventRepository, clubRepository, registrationRepository, attendanceRepository)
	registrationService := service.NewRegistrationService(eventRepository, clubRepository, userRepository, registrationRepository)
	attendanceService := service.NewAttendanceService(eventRepository, clubRepository, userRepository, attendanceRepository, registrationRepository)
	reminderService := service.NewReminderService(eventRepository, reminderNotifier, cfg.Reminder)
	clubService := service.NewClubService(clubRepository, userRepository)
	userService := service.NewUserService(userRepository)

	router := controller.NewRouter(controller.Controllers{
		Event: &controller.EventController{
			EventService:        eventService,
			RegistrationService: registrationService,
			ReminderService:     reminderService,
		},
		Attendance: &controller.AttendanceController{AttendanceService: attendanceService},
		Club:       &controller.ClubController{ClubService: clubService},
		User: &controller.UserController{
			UserService:         userService,
			RegistrationService: registrationService,
		},
	}, controller.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Error running server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
