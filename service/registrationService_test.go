package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/joeyave/club-events/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegisterCapacityOne(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t, withCapacity(1))
	a := f.student(t, "A")
	b := f.student(t, "B")

	registered, err := f.registrations.Register(context.Background(), event.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a.ID}, registered.RegistrationIDs)
	require.Len(t, registered.Registrations, 1)
	assert.Equal(t, a.Email, registered.Registrations[0].Email)

	_, err = f.registrations.Register(context.Background(), event.ID, b.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = f.registrations.Unregister(context.Background(), event.ID, a.ID)
	require.NoError(t, err)

	registered, err = f.registrations.Register(context.Background(), event.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, registered.RegistrationIDs)
}

func TestRegisterTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	_, err = f.registrations.Register(context.Background(), event.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	event, err = f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, event.RegistrationIDs, 1)

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, registrations, 1)
}

func TestRegisterFailureReasons(t *testing.T) {
	f := newFixture(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), primitive.NewObjectID(), student.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	event := f.newEvent(t)
	_, err = f.registrations.Register(context.Background(), event.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := f.newEvent(t)
	_, err = f.events.Deactivate(context.Background(), inactive.ID)
	require.NoError(t, err)
	_, err = f.registrations.Register(context.Background(), inactive.ID, student.ID)
	assert.ErrorIs(t, err, ErrInactiveEvent)
}

func TestRegisterFailurePriority(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t, withCapacity(1))
	a := f.student(t, "A")
	b := f.student(t, "B")

	_, err := f.registrations.Register(context.Background(), event.ID, a.ID)
	require.NoError(t, err)

	// Full and already registered: capacity wins.
	_, err = f.registrations.Register(context.Background(), event.ID, a.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// Inactive and full: inactivity wins.
	_, err = f.events.Deactivate(context.Background(), event.ID)
	require.NoError(t, err)
	_, err = f.registrations.Register(context.Background(), event.ID, b.ID)
	assert.ErrorIs(t, err, ErrInactiveEvent)
}

func TestRegisterUnregisterRoundTrip(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t, withCapacity(10))
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	after, err := f.registrations.Unregister(context.Background(), event.ID, student.ID)
	require.NoError(t, err)
	assert.Empty(t, after.RegistrationIDs)
	assert.Equal(t, event.SpotsLeft(), after.SpotsLeft())

	registrations, err := f.registrations.ListByUser(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, entity.RegistrationCancelled, registrations[0].Status)

	_, err = f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	registrations, err = f.registrations.ListByUser(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, entity.RegistrationRegistered, registrations[0].Status)
}

func TestUnregisterFailures(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Unregister(context.Background(), event.ID, student.ID)
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = f.registrations.Unregister(context.Background(), primitive.NewObjectID(), student.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentRegistrationsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t, withCapacity(5))

	users := make([]*entity.User, 100)
	for i := range users {
		users[i] = f.student(t, "Student")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
		other     []error
	)

	for _, user := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registrations.Register(context.Background(), event.ID, user.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrCapacityExceeded):
				full++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 95, full)
	assert.Empty(t, other)
	assert.Equal(t, 5, f.store.Events().RegistrantCount(event.ID))

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, registrations, 5)
}

func TestUpdateRegistrationStatus(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	registration, err := f.registrations.UpdateStatus(context.Background(), event.ID, student.ID, UpdateRegistrationInput{Status: entity.RegistrationAttended}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RegistrationAttended, registration.Status)

	registration, err = f.registrations.UpdateStatus(context.Background(), event.ID, student.ID, UpdateRegistrationInput{Status: entity.RegistrationNoShow}, f.coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RegistrationNoShow, registration.Status)

	_, err = f.registrations.UpdateStatus(context.Background(), event.ID, student.ID, UpdateRegistrationInput{Status: entity.RegistrationCancelled}, student.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.registrations.UpdateStatus(context.Background(), event.ID, student.ID, UpdateRegistrationInput{Status: "maybe"}, student.ID)
	assert.ErrorIs(t, err, ErrValidation)

	stranger := primitive.NewObjectID()
	_, err = f.registrations.UpdateStatus(context.Background(), event.ID, stranger, UpdateRegistrationInput{Status: entity.RegistrationNoShow}, stranger)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.registrations.UpdateStatus(context.Background(), primitive.NewObjectID(), student.ID, UpdateRegistrationInput{Status: entity.RegistrationNoShow}, student.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRegistrationStatusAuthority(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")
	classmate := f.student(t, "Bob")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	for _, actor := range []primitive.ObjectID{classmate.ID, primitive.NilObjectID} {
		_, err = f.registrations.UpdateStatus(context.Background(), event.ID, student.ID, UpdateRegistrationInput{Status: entity.RegistrationAttended}, actor)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, entity.RegistrationRegistered, registrations[0].Status)
}
