package service

import (
	"context"
	"fmt"
	"time"

	"github.com/joeyave/club-events/configs"
	"github.com/joeyave/club-events/entity"
	"github.com/klauspost/lctime"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const reminderDateFormat = "%A, %d %B %Y %H:%M"

type ReminderService struct {
	eventRepository EventRepository
	notifier        Notifier

	policy      string
	concurrency int
	from        string
	locale      string
	location    *time.Location
}

func NewReminderService(eventRepository EventRepository, notifier Notifier, cfg configs.ReminderConfig) *ReminderService {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		location = time.UTC
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &ReminderService{
		eventRepository: eventRepository,
		notifier:        notifier,
		policy:          cfg.Policy,
		concurrency:     concurrency,
		from:            cfg.MailFrom,
		locale:          cfg.Locale,
		location:        location,
	}
}

type FailedDelivery struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type ReminderReport struct {
	SentTo []string         `json:"sentTo"`
	Failed []FailedDelivery `json:"failed"`
}

// SendReminders sends one reminder per registrant. Under the all-or-nothing policy the
// first failure cancels the remaining sends and fails the call. Under best-effort every
// registrant is attempted and the call fails only when nothing was delivered.
// The event itself is never modified.
func (s *ReminderService) SendReminders(ctx context.Context, eventID primitive.ObjectID) (*ReminderReport, error) {
	event, err := s.eventRepository.FindOneByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event")
	}

	recipients := event.Recipients()
	if len(recipients) == 0 {
		return nil, validationError("event has no registrants to remind")
	}

	reminders := make([]entity.Reminder, 0, len(recipients))
	for _, recipient := range recipients {
		reminders = append(reminders, s.compose(event, recipient))
	}

	if s.policy == configs.ReminderBestEffort {
		return s.sendBestEffort(ctx, reminders)
	}
	return s.sendAllOrNothing(ctx, reminders)
}

func (s *ReminderService) sendAllOrNothing(ctx context.Context, reminders []entity.Reminder) (*ReminderReport, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, reminder := range reminders {
		g.Go(func() error {
			if err := s.notifier.Notify(gctx, reminder); err != nil {
				return fmt.Errorf("%s: %w", reminder.To.Email, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("eventId", reminders[0].EventID.Hex()).Msg("Reminder batch aborted")
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	report := &ReminderReport{SentTo: make([]string, 0, len(reminders)), Failed: []FailedDelivery{}}
	for _, reminder := range reminders {
		report.SentTo = append(report.SentTo, reminder.To.Email)
	}
	return report, nil
}

func (s *ReminderService) sendBestEffort(ctx context.Context, reminders []entity.Reminder) (*ReminderReport, error) {
	errs := make([]error, len(reminders))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, reminder := range reminders {
		g.Go(func() error {
			errs[i] = s.notifier.Notify(ctx, reminder)
			return nil
		})
	}
	_ = g.Wait()

	report := &ReminderReport{SentTo: []string{}, Failed: []FailedDelivery{}}
	for i, reminder := range reminders {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("email", reminder.To.Email).Msg("Failed to send reminder")
			report.Failed = append(report.Failed, FailedDelivery{Email: reminder.To.Email, Error: errs[i].Error()})
			continue
		}
		report.SentTo = append(report.SentTo, reminder.To.Email)
	}

	if len(report.SentTo) == 0 {
		return report, fmt.Errorf("%w: none of %d reminders were delivered", ErrDeliveryFailed, len(reminders))
	}
	return report, nil
}

func (s *ReminderService) compose(event *entity.Event, recipient entity.Recipient) entity.Reminder {
	start := event.StartDate.In(s.location)
	when, err := lctime.StrftimeLoc(s.locale, reminderDateFormat, start)
	if err != nil {
		when = start.Format(time.RFC1123)
	}

	return entity.Reminder{
		EventID: event.ID,
		To:      recipient,
		From:    s.from,
		Subject: fmt.Sprintf("Reminder: %s", event.Title),
		Body: fmt.Sprintf("Hi %s,\n\nThis is a reminder that %s starts on %s at %s.\n\n%s\n",
			recipient.Name, event.Title, when, event.Location, event.Description),
	}
}
