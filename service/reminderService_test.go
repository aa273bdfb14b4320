package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/joeyave/club-events/configs"
	"github.com/joeyave/club-events/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNotifier struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []entity.Reminder
	called int
}

func (n *fakeNotifier) Notify(_ context.Context, reminder entity.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.called++
	if n.fail[reminder.To.Email] {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, reminder)
	return nil
}

func registeredEvent(t *testing.T, f *fixture, names ...string) (*entity.Event, []*entity.User) {
	t.Helper()

	event := f.newEvent(t, func(in *CreateEventInput) { in.Title = "AI Workshop" })
	users := make([]*entity.User, 0, len(names))
	for _, name := range names {
		user := f.student(t, name)
		_, err := f.registrations.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
		users = append(users, user)
	}

	event, err := f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	return event, users
}

func TestSendRemindersAllOrNothing(t *testing.T) {
	f := newFixture(t)
	event, users := registeredEvent(t, f, "Ada", "Bob", "Cy")

	notifier := &fakeNotifier{}
	reminders := NewReminderService(f.store.Events(), notifier, reminderConfig(configs.ReminderAllOrNothing))

	report, err := reminders.SendReminders(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{users[0].Email, users[1].Email, users[2].Email}, report.SentTo)
	assert.Empty(t, report.Failed)

	require.Len(t, notifier.sent, 3)
	for _, reminder := range notifier.sent {
		assert.Equal(t, event.ID, reminder.EventID)
		assert.Equal(t, "Reminder: AI Workshop", reminder.Subject)
		assert.Contains(t, reminder.Body, reminder.To.Name)
		assert.Contains(t, reminder.Body, event.Location)
		assert.Equal(t, "no-reply@campus.local", reminder.From)
	}
}

func TestSendRemindersAllOrNothingFails(t *testing.T) {
	f := newFixture(t)
	event, users := registeredEvent(t, f, "Ada", "Bob")

	notifier := &fakeNotifier{fail: map[string]bool{users[1].Email: true}}
	reminders := NewReminderService(f.store.Events(), notifier, reminderConfig(configs.ReminderAllOrNothing))

	_, err := reminders.SendReminders(context.Background(), event.ID)
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	after, err := f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{users[0].ID, users[1].ID}, after.RegistrationIDs)
	assert.Equal(t, event.RegistrationIDs, after.RegistrationIDs)
	assert.Equal(t, event.UpdatedAt, after.UpdatedAt)
}

func TestSendRemindersBestEffort(t *testing.T) {
	f := newFixture(t)
	event, users := registeredEvent(t, f, "Ada", "Bob", "Cy")

	notifier := &fakeNotifier{fail: map[string]bool{users[1].Email: true}}
	reminders := NewReminderService(f.store.Events(), notifier, reminderConfig(configs.ReminderBestEffort))

	report, err := reminders.SendReminders(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, notifier.called)
	assert.Equal(t, []string{users[0].Email, users[2].Email}, report.SentTo)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, users[1].Email, report.Failed[0].Email)
	assert.Equal(t, "mailbox unavailable", report.Failed[0].Error)
}

func TestSendRemindersBestEffortNothingDelivered(t *testing.T) {
	f := newFixture(t)
	event, users := registeredEvent(t, f, "Ada")

	notifier := &fakeNotifier{fail: map[string]bool{users[0].Email: true}}
	reminders := NewReminderService(f.store.Events(), notifier, reminderConfig(configs.ReminderBestEffort))

	report, err := reminders.SendReminders(context.Background(), event.ID)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	require.NotNil(t, report)
	assert.Len(t, report.Failed, 1)
}

func TestSendRemindersPreconditions(t *testing.T) {
	f := newFixture(t)
	reminders := NewReminderService(f.store.Events(), &fakeNotifier{}, reminderConfig(configs.ReminderAllOrNothing))

	_, err := reminders.SendReminders(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	event := f.newEvent(t)
	_, err = reminders.SendReminders(context.Background(), event.ID)
	assert.ErrorIs(t, err, ErrValidation)
}
