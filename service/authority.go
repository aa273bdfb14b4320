package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// authorizeOutcome lets actor record attendance or a registration outcome for userID
// at event. Only the user themselves or the coordinator of the event's club may.
func authorizeOutcome(ctx context.Context, clubRepository ClubRepository, event *entity.Event, actor, userID primitive.ObjectID) error {
	if !actor.IsZero() && actor == userID {
		return nil
	}

	club, err := clubRepository.FindOneByID(ctx, event.ClubID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if club == nil || !club.IsCoordinatedBy(actor) {
		return fmt.Errorf("%w: only the attendee or the club's faculty coordinator can record attendance", ErrForbidden)
	}
	return nil
}
