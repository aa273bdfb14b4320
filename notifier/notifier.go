// Package notifier delivers event reminders.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/helpers"
	"github.com/rs/zerolog/log"
)

// MailRelay posts each reminder as JSON to an HTTP mail relay.
type MailRelay struct {
	url     string
	tries   int
	client  *http.Client
	backoff time.Duration
}

func NewMailRelay(url string, tries int) *MailRelay {
	if tries < 1 {
		tries = 1
	}
	return &MailRelay{
		url:   url,
		tries: tries,
		client: &http.Client{
			Transport: helpers.NewTransportWithLogger(nil),
			Timeout:   10 * time.Second,
		},
		backoff: 100 * time.Millisecond,
	}
}

func (n *MailRelay) Notify(ctx context.Context, reminder entity.Reminder) error {
	body, err := json.Marshal(reminder)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	retrier := retry.NewRetrier(n.tries, n.backoff, time.Second)
	return retrier.RunContext(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return retry.Stop(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Stop(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusMultipleChoices {
			return nil
		}
		err = fmt.Errorf("mail relay responded with %s", resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return err
		}
		// The relay rejected the reminder itself, sending it again will not help.
		return retry.Stop(err)
	})
}

// Log writes reminders to the logger instead of delivering them.
type Log struct{}

func (Log) Notify(_ context.Context, reminder entity.Reminder) error {
	log.Info().
		Str("eventId", reminder.EventID.Hex()).
		Str("to", reminder.To.Email).
		Str("subject", reminder.Subject).
		Msg("Reminder")
	return nil
}
