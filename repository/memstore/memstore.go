// Package memstore keeps the repository contracts in memory. It mirrors the
// MongoDB repositories closely enough for service and HTTP tests: unique
// indexes, conditional registrant updates and populated references.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type pairKey struct {
	eventID primitive.ObjectID
	userID  primitive.ObjectID
}

type Store struct {
	mu sync.Mutex

	events        map[primitive.ObjectID]*entity.Event
	clubs         map[primitive.ObjectID]*entity.Club
	users         map[primitive.ObjectID]*entity.User
	registrations map[pairKey]*entity.Registration
	attendances   map[pairKey]*entity.Attendance
}

func New() *Store {
	return &Store{
		events:        map[primitive.ObjectID]*entity.Event{},
		clubs:         map[primitive.ObjectID]*entity.Club{},
		users:         map[primitive.ObjectID]*entity.User{},
		registrations: map[pairKey]*entity.Registration{},
		attendances:   map[pairKey]*entity.Attendance{},
	}
}

func (s *Store) Events() *EventRepository {
	return &EventRepository{store: s}
}

func (s *Store) Clubs() *ClubRepository {
	return &ClubRepository{store: s}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Registrations() *RegistrationRepository {
	return &RegistrationRepository{store: s}
}

func (s *Store) Attendances() *AttendanceRepository {
	return &AttendanceRepository{store: s}
}

func lessID(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func now() time.Time {
	return time.Now().UTC()
}

// Events.

type EventRepository struct {
	store *Store
}

func (r *EventRepository) FindAll(_ context.Context, activeOnly bool) ([]*entity.Event, error) {
	return r.store.findEvents(func(e *entity.Event) bool {
		return !activeOnly || e.IsActive
	}, 0), nil
}

func (r *EventRepository) FindMany(_ context.Context, filter repository.EventFilter) ([]*entity.Event, error) {
	return r.store.findEvents(func(e *entity.Event) bool {
		return matchFilter(e, filter)
	}, 0), nil
}

func (r *EventRepository) FindManyByClubID(_ context.Context, clubID primitive.ObjectID) ([]*entity.Event, error) {
	return r.store.findEvents(func(e *entity.Event) bool {
		return e.ClubID == clubID && e.IsActive
	}, 0), nil
}

func (r *EventRepository) FindManyByOrganizerID(_ context.Context, organizerID primitive.ObjectID) ([]*entity.Event, error) {
	return r.store.findEvents(func(e *entity.Event) bool {
		return e.OrganizerID == organizerID
	}, 0), nil
}

func (r *EventRepository) FindManyUpcoming(_ context.Context, fromUTC time.Time, limit int) ([]*entity.Event, error) {
	return r.store.findEvents(func(e *entity.Event) bool {
		return e.IsActive && e.StartDate.After(fromUTC)
	}, limit), nil
}

func (r *EventRepository) FindOneByID(_ context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.store.populateEvent(event), nil
}

func (r *EventRepository) InsertOne(_ context.Context, event entity.Event) (*entity.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if _, ok := r.store.events[event.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	if event.RegistrationIDs == nil {
		event.RegistrationIDs = []primitive.ObjectID{}
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	event.Club, event.Organizer, event.Registrations = nil, nil, nil

	stored := cloneEvent(&event)
	r.store.events[event.ID] = stored
	return r.store.populateEvent(stored), nil
}

func (r *EventRepository) Update(_ context.Context, ID primitive.ObjectID, changes repository.EventChanges) (*entity.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if changes.ExpectStartDate != nil && !event.StartDate.Equal(*changes.ExpectStartDate) {
		return nil, repository.ErrNotFound
	}
	if changes.ExpectEndDate != nil && !event.EndDate.Equal(*changes.ExpectEndDate) {
		return nil, repository.ErrNotFound
	}
	if changes.MaxCapacity != nil && len(event.RegistrationIDs) > *changes.MaxCapacity {
		return nil, repository.ErrNotFound
	}

	if changes.Title != nil {
		event.Title = *changes.Title
	}
	if changes.Description != nil {
		event.Description = *changes.Description
	}
	if changes.Location != nil {
		event.Location = *changes.Location
	}
	if changes.EventType != nil {
		event.EventType = *changes.EventType
	}
	if changes.ImageURL != nil {
		event.ImageURL = *changes.ImageURL
	}
	if changes.StartDate != nil {
		event.StartDate = changes.StartDate.UTC()
	}
	if changes.EndDate != nil {
		event.EndDate = changes.EndDate.UTC()
	}
	if changes.MaxCapacity != nil {
		capacity := *changes.MaxCapacity
		event.MaxCapacity = &capacity
	}
	if changes.Tags != nil {
		event.Tags = slices.Clone(changes.Tags)
	}
	event.UpdatedAt = now()

	return r.store.populateEvent(event), nil
}

func (r *EventRepository) Deactivate(_ context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	event.IsActive = false
	event.UpdatedAt = now()

	return r.store.populateEvent(event), nil
}

func (r *EventRepository) DeleteOneByID(_ context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.store.events, ID)

	return cloneEvent(event), nil
}

func (r *EventRepository) PushRegistrant(_ context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[eventID]
	if !ok || !event.IsActive || event.IsFull() || event.HasRegistrant(userID) {
		return false, nil
	}
	event.RegistrationIDs = append(event.RegistrationIDs, userID)
	event.UpdatedAt = now()

	return true, nil
}

func (r *EventRepository) PullRegistrant(_ context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[eventID]
	if !ok || !event.HasRegistrant(userID) {
		return false, nil
	}
	event.RegistrationIDs = slices.DeleteFunc(event.RegistrationIDs, func(id primitive.ObjectID) bool {
		return id == userID
	})
	event.UpdatedAt = now()

	return true, nil
}

// RegistrantCount reads the stored registrant list length, bypassing population.
func (r *EventRepository) RegistrantCount(ID primitive.ObjectID) int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[ID]
	if !ok {
		return 0
	}
	return len(event.RegistrationIDs)
}

func (s *Store) findEvents(match func(e *entity.Event) bool, limit int) []*entity.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := []*entity.Event{}
	for _, event := range s.events {
		if match(event) {
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return lessID(events[i].ID, events[j].ID)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	populated := make([]*entity.Event, 0, len(events))
	for _, event := range events {
		populated = append(populated, s.populateEvent(event))
	}
	return populated
}

func matchFilter(e *entity.Event, f repository.EventFilter) bool {
	if !f.IncludeInactive && !e.IsActive {
		return false
	}
	if f.Title != "" && !containsFold(e.Title, f.Title) {
		return false
	}
	if f.Location != "" && !containsFold(e.Location, f.Location) {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.StartFrom != nil && e.StartDate.Before(*f.StartFrom) {
		return false
	}
	if f.EndUntil != nil && e.EndDate.After(*f.EndUntil) {
		return false
	}
	if len(f.Tags) > 0 && !e.HasAnyTag(f.Tags) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// populateEvent must be called with s.mu held.
func (s *Store) populateEvent(stored *entity.Event) *entity.Event {
	event := cloneEvent(stored)

	if club, ok := s.clubs[event.ClubID]; ok {
		event.Club = &entity.Club{
			ID:          club.ID,
			Name:        club.Name,
			Description: club.Description,
			Category:    club.Category,
		}
	}
	if organizer, ok := s.users[event.OrganizerID]; ok {
		event.Organizer = cloneUser(organizer)
	}

	event.Registrations = []*entity.User{}
	for _, userID := range event.RegistrationIDs {
		if user, ok := s.users[userID]; ok {
			event.Registrations = append(event.Registrations, &entity.User{ID: user.ID, Name: user.Name, Email: user.Email})
		}
	}

	return event
}

func cloneEvent(e *entity.Event) *entity.Event {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	c.RegistrationIDs = slices.Clone(e.RegistrationIDs)
	if e.MaxCapacity != nil {
		capacity := *e.MaxCapacity
		c.MaxCapacity = &capacity
	}
	c.Club, c.Organizer, c.Registrations = nil, nil, nil
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

// Clubs.

type ClubRepository struct {
	store *Store
}

func (r *ClubRepository) FindAll(_ context.Context) ([]*entity.Club, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	clubs := []*entity.Club{}
	for _, club := range r.store.clubs {
		clubs = append(clubs, r.store.populateClub(club))
	}
	sort.Slice(clubs, func(i, j int) bool {
		return clubs[i].Name < clubs[j].Name
	})
	return clubs, nil
}

func (r *ClubRepository) FindOneByID(_ context.Context, ID primitive.ObjectID) (*entity.Club, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	club, ok := r.store.clubs[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.store.populateClub(club), nil
}

func (r *ClubRepository) InsertOne(_ context.Context, club entity.Club) (*entity.Club, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.clubs {
		if existing.Name == club.Name {
			return nil, repository.ErrDuplicate
		}
	}
	if club.ID.IsZero() {
		club.ID = primitive.NewObjectID()
	}
	if club.EventIDs == nil {
		club.EventIDs = []primitive.ObjectID{}
	}
	if club.CreatedAt.IsZero() {
		club.CreatedAt = now()
	}
	club.FacultyCoordinator = nil

	stored := club
	r.store.clubs[club.ID] = &stored
	return r.store.populateClub(&stored), nil
}

func (r *ClubRepository) PushEventID(_ context.Context, clubID, eventID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	club, ok := r.store.clubs[clubID]
	if ok && !slices.Contains(club.EventIDs, eventID) {
		club.EventIDs = append(club.EventIDs, eventID)
	}
	return nil
}

func (r *ClubRepository) PullEventID(_ context.Context, clubID, eventID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	club, ok := r.store.clubs[clubID]
	if ok {
		club.EventIDs = slices.DeleteFunc(club.EventIDs, func(id primitive.ObjectID) bool {
			return id == eventID
		})
	}
	return nil
}

func (s *Store) populateClub(stored *entity.Club) *entity.Club {
	club := *stored
	club.EventIDs = slices.Clone(stored.EventIDs)
	if coordinator, ok := s.users[club.FacultyCoordinatorID]; ok {
		club.FacultyCoordinator = cloneUser(coordinator)
	}
	return &club
}

// Users.

type UserRepository struct {
	store *Store
}

func (r *UserRepository) FindAll(_ context.Context) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users := []*entity.User{}
	for _, user := range r.store.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return lessID(users[i].ID, users[j].ID)
	})
	return users, nil
}

func (r *UserRepository) FindOneByID(_ context.Context, ID primitive.ObjectID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) InsertOne(_ context.Context, user entity.User) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}

	r.store.users[user.ID] = cloneUser(&user)
	return cloneUser(&user), nil
}

// Registrations.

type RegistrationRepository struct {
	store *Store
}

func (r *RegistrationRepository) FindManyByEventID(_ context.Context, eventID primitive.ObjectID) ([]*entity.Registration, error) {
	return r.store.findRegistrations(func(reg *entity.Registration) bool {
		return reg.EventID == eventID
	}), nil
}

func (r *RegistrationRepository) FindManyByUserID(_ context.Context, userID primitive.ObjectID) ([]*entity.Registration, error) {
	return r.store.findRegistrations(func(reg *entity.Registration) bool {
		return reg.UserID == userID
	}), nil
}

func (r *RegistrationRepository) Upsert(_ context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey{eventID: eventID, userID: userID}
	t := now()

	registration, ok := r.store.registrations[key]
	if !ok {
		registration = &entity.Registration{
			ID:               primitive.NewObjectID(),
			UserID:           userID,
			EventID:          eventID,
			RegistrationDate: t,
			CreatedAt:        t,
		}
		r.store.registrations[key] = registration
	}
	registration.Status = status
	registration.UpdatedAt = t

	c := *registration
	return &c, nil
}

func (r *RegistrationRepository) UpdateStatus(_ context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	registration, ok := r.store.registrations[pairKey{eventID: eventID, userID: userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	registration.Status = status
	registration.UpdatedAt = now()

	c := *registration
	return &c, nil
}

func (r *RegistrationRepository) DeleteManyByEventID(_ context.Context, eventID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key := range r.store.registrations {
		if key.eventID == eventID {
			delete(r.store.registrations, key)
		}
	}
	return nil
}

func (s *Store) findRegistrations(match func(reg *entity.Registration) bool) []*entity.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	registrations := []*entity.Registration{}
	for _, registration := range s.registrations {
		if !match(registration) {
			continue
		}
		c := *registration
		if user, ok := s.users[c.UserID]; ok {
			c.User = cloneUser(user)
		}
		registrations = append(registrations, &c)
	}
	sort.Slice(registrations, func(i, j int) bool {
		if !registrations[i].RegistrationDate.Equal(registrations[j].RegistrationDate) {
			return registrations[i].RegistrationDate.Before(registrations[j].RegistrationDate)
		}
		return lessID(registrations[i].ID, registrations[j].ID)
	})
	return registrations
}

// Attendance.

type AttendanceRepository struct {
	store *Store
}

func (r *AttendanceRepository) FindManyByEventID(_ context.Context, eventID primitive.ObjectID) ([]*entity.Attendance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attendances := []*entity.Attendance{}
	for key, attendance := range r.store.attendances {
		if key.eventID != eventID {
			continue
		}
		c := *attendance
		if user, ok := r.store.users[c.UserID]; ok {
			c.User = cloneUser(user)
		}
		attendances = append(attendances, &c)
	}
	sort.Slice(attendances, func(i, j int) bool {
		if !attendances[i].MarkedAt.Equal(attendances[j].MarkedAt) {
			return attendances[i].MarkedAt.Before(attendances[j].MarkedAt)
		}
		return lessID(attendances[i].ID, attendances[j].ID)
	})
	return attendances, nil
}

func (r *AttendanceRepository) InsertOne(_ context.Context, attendance entity.Attendance) (*entity.Attendance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey{eventID: attendance.EventID, userID: attendance.UserID}
	if _, ok := r.store.attendances[key]; ok {
		return nil, repository.ErrDuplicate
	}

	t := now()
	if attendance.ID.IsZero() {
		attendance.ID = primitive.NewObjectID()
	}
	if attendance.MarkedAt.IsZero() {
		attendance.MarkedAt = t
	}
	if attendance.Status == "" {
		attendance.Status = entity.AttendancePresent
	}
	attendance.CreatedAt = t
	attendance.UpdatedAt = t
	attendance.User = nil

	stored := attendance
	r.store.attendances[key] = &stored
	return &attendance, nil
}

func (r *AttendanceRepository) UpdateOne(_ context.Context, eventID, userID, markedBy primitive.ObjectID, status entity.AttendanceStatus, notes *string) (*entity.Attendance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attendance, ok := r.store.attendances[pairKey{eventID: eventID, userID: userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := now()
	attendance.Status = status
	attendance.MarkedByID = markedBy
	attendance.MarkedAt = t
	if notes != nil {
		attendance.Notes = *notes
	}
	attendance.UpdatedAt = t

	c := *attendance
	return &c, nil
}

func (r *AttendanceRepository) DeleteManyByEventID(_ context.Context, eventID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key := range r.store.attendances {
		if key.eventID == eventID {
			delete(r.store.attendances, key)
		}
	}
	return nil
}
