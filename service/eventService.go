package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/helpers"
	"github.com/joeyave/club-events/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type EventService struct {
	eventRepository        EventRepository
	clubRepository         ClubRepository
	registrationRepository RegistrationRepository
	attendanceRepository   AttendanceRepository
}

func NewEventService(eventRepository EventRepository, clubRepository ClubRepository, registrationRepository RegistrationRepository, attendanceRepository AttendanceRepository) *EventService {
	return &EventService{
		eventRepository:        eventRepository,
		clubRepository:         clubRepository,
		registrationRepository: registrationRepository,
		attendanceRepository:   attendanceRepository,
	}
}

type CreateEventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Location    string    `json:"location" validate:"required"`
	Club        string    `json:"club" validate:"required,objectid"`
	MaxCapacity *int      `json:"maxCapacity" validate:"omitempty,min=1"`
	EventType   string    `json:"eventType"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	Tags        []string  `json:"tags"`
}

func (in *CreateEventInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Club = strings.TrimSpace(in.Club)
	in.EventType = strings.TrimSpace(in.EventType)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

// UpdateEventInput is a partial update. Nil fields are left unchanged.
type UpdateEventInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	Location    *string    `json:"location" validate:"omitempty,min=1"`
	EventType   *string    `json:"eventType"`
	ImageURL    *string    `json:"imageUrl" validate:"omitempty,url"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	MaxCapacity *int       `json:"maxCapacity" validate:"omitempty,min=1"`
	Tags        []string   `json:"tags"`
}

func (in *UpdateEventInput) trim() {
	for _, s := range []*string{in.Title, in.Description, in.Location, in.EventType, in.ImageURL} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (in *UpdateEventInput) changes() repository.EventChanges {
	changes := repository.EventChanges{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		EventType:   in.EventType,
		ImageURL:    in.ImageURL,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		MaxCapacity: in.MaxCapacity,
	}
	if in.Tags != nil {
		changes.Tags = entity.NormalizeTags(in.Tags)
	}
	return changes
}

// SearchEventsInput is decoded from the query string. Dates accept RFC 3339 or YYYY-MM-DD.
type SearchEventsInput struct {
	Title           string   `schema:"title"`
	Location        string   `schema:"location"`
	EventType       string   `schema:"eventType"`
	StartDate       string   `schema:"startDate"`
	EndDate         string   `schema:"endDate"`
	Tags            []string `schema:"tags"`
	IncludeInactive bool     `schema:"includeInactive"`
}

func (in *SearchEventsInput) filter() (repository.EventFilter, error) {
	filter := repository.EventFilter{
		Title:           strings.TrimSpace(in.Title),
		Location:        strings.TrimSpace(in.Location),
		EventType:       strings.TrimSpace(in.EventType),
		IncludeInactive: in.IncludeInactive,
	}

	if in.StartDate != "" {
		from, err := parseDate(in.StartDate)
		if err != nil {
			return filter, validationError("startDate %q is not a date", in.StartDate)
		}
		filter.StartFrom = &from
	}
	if in.EndDate != "" {
		until, err := parseDate(in.EndDate)
		if err != nil {
			return filter, validationError("endDate %q is not a date", in.EndDate)
		}
		filter.EndUntil = &until
	}

	var tags []string
	for _, tag := range in.Tags {
		tags = append(tags, strings.Split(tag, ",")...)
	}
	filter.Tags = entity.NormalizeTags(tags)

	return filter, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Parse(helpers.DateLayout, s)
}

func (s *EventService) List(ctx context.Context, activeOnly bool) ([]*entity.Event, error) {
	return s.eventRepository.FindAll(ctx, activeOnly)
}

// GetByID returns the event regardless of its active flag.
func (s *EventService) GetByID(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	event, err := s.eventRepository.FindOneByID(ctx, ID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

func (s *EventService) Create(ctx context.Context, input CreateEventInput, organizerID primitive.ObjectID) (*entity.Event, error) {
	input.trim()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	switch {
	case input.StartDate.IsZero():
		return nil, validationError("startDate is required")
	case input.EndDate.IsZero():
		return nil, validationError("endDate is required")
	case !input.StartDate.After(time.Now()):
		return nil, validationError("startDate must be in the future")
	case !input.EndDate.After(input.StartDate):
		return nil, validationError("endDate must be after startDate")
	}

	clubID, err := parseID(input.Club, "club")
	if err != nil {
		return nil, err
	}

	club, err := s.clubRepository.FindOneByID(ctx, clubID)
	if err != nil {
		return nil, notFound(err, "club")
	}
	if !club.IsCoordinatedBy(organizerID) {
		return nil, fmt.Errorf("%w: only the club's faculty coordinator can create events", ErrForbidden)
	}

	now := time.Now().UTC()
	event, err := s.eventRepository.InsertOne(ctx, entity.Event{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		Location:    input.Location,
		ClubID:      club.ID,
		OrganizerID: organizerID,
		MaxCapacity: input.MaxCapacity,
		EventType:   input.EventType,
		ImageURL:    input.ImageURL,
		Tags:        entity.NormalizeTags(input.Tags),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	err = s.clubRepository.PushEventID(ctx, club.ID, event.ID)
	if err != nil {
		log.Error().Err(err).Str("eventId", event.ID.Hex()).Str("clubId", club.ID.Hex()).Msg("Failed to link event to club")
	}

	return event, nil
}

// Update overwrites only the fields present in input. When a date changes the merged
// start and end are re-validated and the write is conditional on the dates read, so a
// concurrent date change is reported as ErrConflict instead of being overwritten.
func (s *EventService) Update(ctx context.Context, ID primitive.ObjectID, input UpdateEventInput) (*entity.Event, error) {
	input.trim()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	changes := input.changes()
	if changes.IsEmpty() {
		return s.GetByID(ctx, ID)
	}

	if changes.StartDate != nil || changes.EndDate != nil {
		current, err := s.eventRepository.FindOneByID(ctx, ID)
		if err != nil {
			return nil, notFound(err, "event")
		}

		start, end := current.StartDate, current.EndDate
		if changes.StartDate != nil {
			if changes.StartDate.IsZero() {
				return nil, validationError("startDate must not be empty")
			}
			start = *changes.StartDate
		}
		if changes.EndDate != nil {
			if changes.EndDate.IsZero() {
				return nil, validationError("endDate must not be empty")
			}
			end = *changes.EndDate
		}
		if !end.After(start) {
			return nil, validationError("endDate must be after startDate")
		}

		changes.ExpectStartDate = &current.StartDate
		changes.ExpectEndDate = &current.EndDate
	}

	event, err := s.eventRepository.Update(ctx, ID, changes)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.explainUpdateMiss(ctx, ID, changes)
	}
	return event, err
}

func (s *EventService) explainUpdateMiss(ctx context.Context, ID primitive.ObjectID, changes repository.EventChanges) error {
	event, err := s.eventRepository.FindOneByID(ctx, ID)
	if err != nil {
		return notFound(err, "event")
	}
	if changes.MaxCapacity != nil && len(event.RegistrationIDs) > *changes.MaxCapacity {
		return validationError("maxCapacity %d is below the current %d registrations", *changes.MaxCapacity, len(event.RegistrationIDs))
	}
	datesMoved := changes.ExpectStartDate != nil && !event.StartDate.Equal(*changes.ExpectStartDate) ||
		changes.ExpectEndDate != nil && !event.EndDate.Equal(*changes.ExpectEndDate)
	switch {
	case datesMoved:
		return fmt.Errorf("%w: event dates changed during update", ErrConflict)
	case changes.MaxCapacity != nil:
		return fmt.Errorf("%w: event registrations changed during update", ErrConflict)
	}
	return fmt.Errorf("%w: event changed during update", ErrConflict)
}

// Delete removes the event and its registration and attendance records.
// Cleanup failures are logged; the event itself is already gone.
func (s *EventService) Delete(ctx context.Context, ID primitive.ObjectID) error {
	deleted, err := s.eventRepository.DeleteOneByID(ctx, ID)
	if err != nil {
		return notFound(err, "event")
	}

	var g errgroup.Group
	g.Go(func() error {
		return s.clubRepository.PullEventID(ctx, deleted.ClubID, deleted.ID)
	})
	g.Go(func() error {
		return s.registrationRepository.DeleteManyByEventID(ctx, deleted.ID)
	})
	g.Go(func() error {
		return s.attendanceRepository.DeleteManyByEventID(ctx, deleted.ID)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("eventId", deleted.ID.Hex()).Msg("Failed to clean up after event deletion")
	}

	return nil
}

func (s *EventService) Deactivate(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	event, err := s.eventRepository.Deactivate(ctx, ID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

func (s *EventService) Search(ctx context.Context, input SearchEventsInput) ([]*entity.Event, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}
	return s.eventRepository.FindMany(ctx, filter)
}

func (s *EventService) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]*entity.Event, error) {
	return s.eventRepository.FindManyByClubID(ctx, clubID)
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]*entity.Event, error) {
	return s.eventRepository.FindManyByOrganizerID(ctx, organizerID)
}

// ListUpcoming returns active events starting after now. A zero limit means the default.
func (s *EventService) ListUpcoming(ctx context.Context, limit int) ([]*entity.Event, error) {
	switch {
	case limit < 0:
		return nil, validationError("limit must not be negative")
	case limit == 0:
		limit = helpers.DefaultUpcomingLimit
	case limit > helpers.MaxUpcomingLimit:
		limit = helpers.MaxUpcomingLimit
	}
	return s.eventRepository.FindManyUpcoming(ctx, time.Now().UTC(), limit)
}
