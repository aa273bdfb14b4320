package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/joeyave/club-events/service"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

type EventController struct {
	EventService        *service.EventService
	RegistrationService *service.RegistrationService
	ReminderService     *service.ReminderService
}

type listEventsQuery struct {
	All bool `schema:"all"`
}

type upcomingQuery struct {
	Limit int `schema:"limit"`
}

func (c *EventController) List(ctx *gin.Context) {
	var query listEventsQuery
	if err := queryDecoder.Decode(&query, ctx.Request.URL.Query()); err != nil {
		badRequest(ctx, "invalid query: "+err.Error())
		return
	}

	events, err := c.EventService.List(ctx.Request.Context(), !query.All)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, events)
}

func (c *EventController) Search(ctx *gin.Context) {
	var input service.SearchEventsInput
	if err := queryDecoder.Decode(&input, ctx.Request.URL.Query()); err != nil {
		badRequest(ctx, "invalid query: "+err.Error())
		return
	}

	events, err := c.EventService.Search(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, events)
}

func (c *EventController) Upcoming(ctx *gin.Context) {
	var query upcomingQuery
	if err := queryDecoder.Decode(&query, ctx.Request.URL.Query()); err != nil {
		badRequest(ctx, "invalid limit")
		return
	}

	events, err := c.EventService.ListUpcoming(ctx.Request.Context(), query.Limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, events)
}

func (c *EventController) ListByClub(ctx *gin.Context) {
	clubID, ok := paramID(ctx, "clubId")
	if !ok {
		return
	}

	events, err := c.EventService.ListByClub(ctx.Request.Context(), clubID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, events)
}

func (c *EventController) ListByOrganizer(ctx *gin.Context) {
	organizerID, ok := paramID(ctx, "organizerId")
	if !ok {
		return
	}

	events, err := c.EventService.ListByOrganizer(ctx.Request.Context(), organizerID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, events)
}

func (c *EventController) Get(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.EventService.GetByID(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, event)
}

func (c *EventController) Create(ctx *gin.Context) {
	organizerID, _ := currentUserID(ctx)

	var input service.CreateEventInput
	if !bindJSON(ctx, &input) {
		return
	}

	event, err := c.EventService.Create(ctx.Request.Context(), input, organizerID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, event)
}

func (c *EventController) Update(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var input service.UpdateEventInput
	if !bindJSON(ctx, &input) {
		return
	}

	event, err := c.EventService.Update(ctx.Request.Context(), eventID, input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, event)
}

func (c *EventController) Delete(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.EventService.Delete(ctx.Request.Context(), eventID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (c *EventController) Deactivate(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.EventService.Deactivate(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Event deactivated successfully",
		"event":   event,
	})
}

// Registration.

func (c *EventController) Register(ctx *gin.Context) {
	userID, _ := currentUserID(ctx)
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	event, err := c.RegistrationService.Register(ctx.Request.Context(), eventID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, event)
}

func (c *EventController) Unregister(ctx *gin.Context) {
	userID, _ := currentUserID(ctx)
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	event, err := c.RegistrationService.Unregister(ctx.Request.Context(), eventID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, event)
}

func (c *EventController) Registrations(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	registrations, err := c.RegistrationService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, registrations)
}

func (c *EventController) UpdateRegistration(ctx *gin.Context) {
	updatedBy, _ := currentUserID(ctx)
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "userId")
	if !ok {
		return
	}

	var input service.UpdateRegistrationInput
	if !bindJSON(ctx, &input) {
		return
	}

	registration, err := c.RegistrationService.UpdateStatus(ctx.Request.Context(), eventID, userID, input, updatedBy)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, registration)
}

// Reminders.

func (c *EventController) SendReminders(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	report, err := c.ReminderService.SendReminders(ctx.Request.Context(), eventID)
	switch {
	case errors.Is(err, service.ErrDeliveryFailed):
		body := gin.H{"error": err.Error()}
		if report != nil {
			body["sentTo"] = report.SentTo
			body["failed"] = report.Failed
		}
		ctx.JSON(http.StatusInternalServerError, body)
		return
	case err != nil:
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, report)
}
