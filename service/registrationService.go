package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// registerAttempts bounds how often a rejected push is retried when the re-read
// event shows no reason for the rejection.
const registerAttempts = 3

type RegistrationService struct {
	eventRepository        EventRepository
	clubRepository         ClubRepository
	userRepository         UserRepository
	registrationRepository RegistrationRepository
}

func NewRegistrationService(eventRepository EventRepository, clubRepository ClubRepository, userRepository UserRepository, registrationRepository RegistrationRepository) *RegistrationService {
	return &RegistrationService{
		eventRepository:        eventRepository,
		clubRepository:         clubRepository,
		userRepository:         userRepository,
		registrationRepository: registrationRepository,
	}
}

// Register adds userID to the event's registrants. The capacity, activity and
// uniqueness checks are evaluated by the store in the same update that appends.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID primitive.ObjectID) (*entity.Event, error) {
	_, err := s.userRepository.FindOneByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	for attempt := 0; attempt < registerAttempts; attempt++ {
		pushed, err := s.eventRepository.PushRegistrant(ctx, eventID, userID)
		if err != nil {
			return nil, err
		}
		if pushed {
			return s.recordRegistration(ctx, eventID, userID)
		}

		event, err := s.eventRepository.FindOneByID(ctx, eventID)
		if err != nil {
			return nil, notFound(err, "event")
		}
		if err := rejectionReason(event, userID); err != nil {
			return nil, err
		}

		log.Debug().Str("eventId", eventID.Hex()).Int("attempt", attempt+1).Msg("Registration rejected without visible reason, retrying")
	}

	return nil, fmt.Errorf("%w: registration kept being rejected", ErrConflict)
}

// rejectionReason explains, in priority order, why event would not accept userID.
func rejectionReason(event *entity.Event, userID primitive.ObjectID) error {
	switch {
	case !event.IsActive:
		return ErrInactiveEvent
	case event.IsFull():
		return ErrCapacityExceeded
	case event.HasRegistrant(userID):
		return ErrAlreadyRegistered
	}
	return nil
}

func (s *RegistrationService) recordRegistration(ctx context.Context, eventID, userID primitive.ObjectID) (*entity.Event, error) {
	_, err := s.registrationRepository.Upsert(ctx, eventID, userID, entity.RegistrationRegistered)
	if err != nil {
		if _, pullErr := s.eventRepository.PullRegistrant(ctx, eventID, userID); pullErr != nil {
			log.Error().Err(pullErr).Str("eventId", eventID.Hex()).Str("userId", userID.Hex()).Msg("Failed to roll back registrant after record failure")
		}
		return nil, err
	}

	return s.eventRepository.FindOneByID(ctx, eventID)
}

func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID primitive.ObjectID) (*entity.Event, error) {
	pulled, err := s.eventRepository.PullRegistrant(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	if !pulled {
		_, err := s.eventRepository.FindOneByID(ctx, eventID)
		if err != nil {
			return nil, notFound(err, "event")
		}
		return nil, ErrNotRegistered
	}

	_, err = s.registrationRepository.UpdateStatus(ctx, eventID, userID, entity.RegistrationCancelled)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Str("eventId", eventID.Hex()).Str("userId", userID.Hex()).Msg("Failed to cancel registration record")
	}

	return s.GetEvent(ctx, eventID)
}

func (s *RegistrationService) GetEvent(ctx context.Context, eventID primitive.ObjectID) (*entity.Event, error) {
	event, err := s.eventRepository.FindOneByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

func (s *RegistrationService) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Registration, error) {
	return s.registrationRepository.FindManyByEventID(ctx, eventID)
}

func (s *RegistrationService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*entity.Registration, error) {
	return s.registrationRepository.FindManyByUserID(ctx, userID)
}

type UpdateRegistrationInput struct {
	Status entity.RegistrationStatus `json:"status" validate:"required,oneof=attended no-show"`
}

// UpdateStatus records the outcome of a registration. Registering and cancelling go
// through Register and Unregister so the event's registrant list stays in step.
// Only the registrant or the club's faculty coordinator may record an outcome.
func (s *RegistrationService) UpdateStatus(ctx context.Context, eventID, userID primitive.ObjectID, input UpdateRegistrationInput, updatedBy primitive.ObjectID) (*entity.Registration, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	event, err := s.eventRepository.FindOneByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := authorizeOutcome(ctx, s.clubRepository, event, updatedBy, userID); err != nil {
		return nil, err
	}

	registration, err := s.registrationRepository.UpdateStatus(ctx, eventID, userID, input.Status)
	if err != nil {
		return nil, notFound(err, "registration")
	}
	return registration, nil
}
