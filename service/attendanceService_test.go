package service

import (
	"context"
	"testing"

	"github.com/joeyave/club-events/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarkAttendance(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	attendance, err := f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex(), Notes: " front row "}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AttendancePresent, attendance.Status)
	assert.Equal(t, "front row", attendance.Notes)
	assert.Equal(t, student.ID, attendance.MarkedByID)
	assert.False(t, attendance.MarkedAt.IsZero())

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, entity.RegistrationAttended, registrations[0].Status)

	_, err = f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex()}, student.ID)
	assert.ErrorIs(t, err, ErrAlreadyMarked)
}

func TestMarkAttendanceByCoordinator(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	attendance, err := f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{
		User:   student.ID.Hex(),
		Status: entity.AttendanceAbsent,
	}, f.coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, f.coordinator.ID, attendance.MarkedByID)

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, entity.RegistrationNoShow, registrations[0].Status)

	list, err := f.attendance.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, student.Name, list[0].User.Name)
}

func TestMarkAttendanceFailures(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")
	classmate := f.student(t, "Bob")

	_, err := f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex()}, classmate.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.attendance.Mark(context.Background(), primitive.NewObjectID(), MarkAttendanceInput{User: student.ID.Hex()}, student.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	unknown := primitive.NewObjectID()
	_, err = f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: unknown.Hex()}, unknown)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: "nope"}, student.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex(), Status: "asleep"}, student.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAttendance(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")

	_, err := f.registrations.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)
	_, err = f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex(), Notes: "on time"}, student.ID)
	require.NoError(t, err)

	updated, err := f.attendance.UpdateStatus(context.Background(), event.ID, student.ID, UpdateAttendanceInput{Status: entity.AttendanceLate}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AttendanceLate, updated.Status)
	assert.Equal(t, "on time", updated.Notes)
	assert.Equal(t, student.ID, updated.MarkedByID)

	updated, err = f.attendance.UpdateStatus(context.Background(), event.ID, student.ID, UpdateAttendanceInput{Status: entity.AttendanceAbsent, Notes: ptr("left early")}, f.coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, "left early", updated.Notes)
	assert.Equal(t, f.coordinator.ID, updated.MarkedByID)

	registrations, err := f.registrations.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RegistrationNoShow, registrations[0].Status)

	_, err = f.attendance.UpdateStatus(context.Background(), event.ID, primitive.NewObjectID(), UpdateAttendanceInput{Status: entity.AttendanceLate}, f.coordinator.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.attendance.UpdateStatus(context.Background(), event.ID, student.ID, UpdateAttendanceInput{}, student.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAttendanceAuthority(t *testing.T) {
	f := newFixture(t)
	event := f.newEvent(t)
	student := f.student(t, "Ada")
	classmate := f.student(t, "Bob")

	_, err := f.attendance.Mark(context.Background(), event.ID, MarkAttendanceInput{User: student.ID.Hex()}, student.ID)
	require.NoError(t, err)

	for _, actor := range []primitive.ObjectID{classmate.ID, primitive.NilObjectID} {
		_, err = f.attendance.UpdateStatus(context.Background(), event.ID, student.ID, UpdateAttendanceInput{Status: entity.AttendanceAbsent}, actor)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	list, err := f.attendance.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.AttendancePresent, list[0].Status)
	assert.Equal(t, student.ID, list[0].MarkedByID)
}
