package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeyave/club-events/configs"
	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository/memstore"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memstore.Store

	events        *EventService
	registrations *RegistrationService
	attendance    *AttendanceService
	clubs         *ClubService
	users         *UserService

	coordinator *entity.User
	club        *entity.Club
}

var userSeq atomic.Int64

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	f := &fixture{
		store:         store,
		events:        NewEventService(store.Events(), store.Clubs(), store.Registrations(), store.Attendances()),
		registrations: NewRegistrationService(store.Events(), store.Clubs(), store.Users(), store.Registrations()),
		attendance:    NewAttendanceService(store.Events(), store.Clubs(), store.Users(), store.Attendances(), store.Registrations()),
		clubs:         NewClubService(store.Clubs(), store.Users()),
		users:         NewUserService(store.Users()),
	}

	f.coordinator = f.newUser(t, "Dr. Grace", entity.FacultyRole)

	club, err := f.clubs.Create(context.Background(), CreateClubInput{
		Name:               "Robotics Club",
		Category:           "technical",
		FacultyCoordinator: f.coordinator.ID.Hex(),
	})
	require.NoError(t, err)
	f.club = club

	return f
}

func (f *fixture) newUser(t *testing.T, name, role string) *entity.User {
	t.Helper()

	n := userSeq.Add(1)
	user, err := f.users.Create(context.Background(), CreateUserInput{
		Name:  name,
		Email: fmt.Sprintf("user%d@campus.edu", n),
		Role:  role,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) student(t *testing.T, name string) *entity.User {
	return f.newUser(t, name, entity.StudentRole)
}

func (f *fixture) eventInput(mutate ...func(in *CreateEventInput)) CreateEventInput {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	in := CreateEventInput{
		Title:       "Intro to Robotics",
		Description: "Hands-on session",
		StartDate:   start,
		EndDate:     start.Add(2 * time.Hour),
		Location:    "Lab 3",
		Club:        f.club.ID.Hex(),
	}
	for _, m := range mutate {
		m(&in)
	}
	return in
}

func (f *fixture) newEvent(t *testing.T, mutate ...func(in *CreateEventInput)) *entity.Event {
	t.Helper()

	event, err := f.events.Create(context.Background(), f.eventInput(mutate...), f.coordinator.ID)
	require.NoError(t, err)
	return event
}

func withCapacity(n int) func(in *CreateEventInput) {
	return func(in *CreateEventInput) {
		in.MaxCapacity = &n
	}
}

func ptr[T any](v T) *T {
	return &v
}

func reminderConfig(policy string) configs.ReminderConfig {
	return configs.ReminderConfig{
		Policy:      policy,
		Concurrency: 4,
		MailFrom:    "no-reply@campus.local",
		Locale:      "en_US",
		Timezone:    "UTC",
	}
}
