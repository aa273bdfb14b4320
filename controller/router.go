package controller

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/helpers"
	"golang.org/x/exp/slices"
)

type Controllers struct {
	Event      *EventController
	Attendance *AttendanceController
	Club       *ClubController
	User       *UserController
}

type RouterOptions struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", helpers.UserIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return config
}

func NewRouter(c Controllers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), helpers.RequestLogger(), cors.New(corsConfig(opts.AllowedOrigins)))

	api := r.Group("/api", RequestTimeout(opts.RequestTimeout), Identity())
	auth := RequireUser()

	events := api.Group("/events")
	{
		events.GET("", c.Event.List)
		events.POST("", auth, c.Event.Create)
		events.GET("/search", c.Event.Search)
		events.GET("/upcoming", c.Event.Upcoming)
		events.GET("/club/:clubId", c.Event.ListByClub)
		events.GET("/organizer/:organizerId", c.Event.ListByOrganizer)

		events.POST("/attendees/:eventId", auth, c.Event.Register)
		events.DELETE("/attendees/:eventId", auth, c.Event.Unregister)
		events.POST("/reminder/:eventId", c.Event.SendReminders)

		events.GET("/:id", c.Event.Get)
		events.PUT("/:id", c.Event.Update)
		events.DELETE("/:id", c.Event.Delete)
		events.PATCH("/:id/deactivate", c.Event.Deactivate)

		events.GET("/:id/registrations", c.Event.Registrations)
		events.PATCH("/:id/registrations/:userId", auth, c.Event.UpdateRegistration)

		events.GET("/:id/attendance", c.Attendance.List)
		events.POST("/:id/attendance", auth, c.Attendance.Mark)
		events.PATCH("/:id/attendance/:userId", auth, c.Attendance.Update)
	}

	clubs := api.Group("/clubs")
	{
		clubs.GET("", c.Club.List)
		clubs.POST("", c.Club.Create)
		clubs.GET("/:id", c.Club.Get)
	}

	users := api.Group("/users")
	{
		users.GET("", c.User.List)
		users.POST("", c.User.Create)
		users.GET("/:id", c.User.Get)
		users.GET("/:id/registrations", c.User.Registrations)
	}

	api.GET("/user", auth, c.User.Me)

	return r
}
