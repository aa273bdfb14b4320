package service

import (
	"context"
	"errors"
	"strings"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AttendanceService struct {
	eventRepository        EventRepository
	clubRepository         ClubRepository
	userRepository         UserRepository
	attendanceRepository   AttendanceRepository
	registrationRepository RegistrationRepository
}

func NewAttendanceService(eventRepository EventRepository, clubRepository ClubRepository, userRepository UserRepository, attendanceRepository AttendanceRepository, registrationRepository RegistrationRepository) *AttendanceService {
	return &AttendanceService{
		eventRepository:        eventRepository,
		clubRepository:         clubRepository,
		userRepository:         userRepository,
		attendanceRepository:   attendanceRepository,
		registrationRepository: registrationRepository,
	}
}

type MarkAttendanceInput struct {
	User   string                  `json:"userId" validate:"required,objectid"`
	Status entity.AttendanceStatus `json:"status" validate:"omitempty,oneof=present absent late"`
	Notes  string                  `json:"notes"`
}

type UpdateAttendanceInput struct {
	Status entity.AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
	Notes  *string                 `json:"notes"`
}

// Mark records attendance for input.User. Only the attendee or the coordinator of
// the event's club may mark it, and each (user, event) pair is marked once.
func (s *AttendanceService) Mark(ctx context.Context, eventID primitive.ObjectID, input MarkAttendanceInput, markedBy primitive.ObjectID) (*entity.Attendance, error) {
	input.User = strings.TrimSpace(input.User)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = entity.AttendancePresent
	}

	userID, err := parseID(input.User, "user")
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepository.FindOneByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	_, err = s.userRepository.FindOneByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if err := authorizeOutcome(ctx, s.clubRepository, event, markedBy, userID); err != nil {
		return nil, err
	}

	attendance, err := s.attendanceRepository.InsertOne(ctx, entity.Attendance{
		UserID:     userID,
		EventID:    eventID,
		MarkedByID: markedBy,
		Status:     input.Status,
		Notes:      strings.TrimSpace(input.Notes),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyMarked
	}
	if err != nil {
		return nil, err
	}

	s.syncRegistration(ctx, eventID, userID, attendance.Status)

	return attendance, nil
}

func (s *AttendanceService) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Attendance, error) {
	return s.attendanceRepository.FindManyByEventID(ctx, eventID)
}

// UpdateStatus changes an existing mark. The same people who may mark may update,
// and the updater becomes the record's marker.
func (s *AttendanceService) UpdateStatus(ctx context.Context, eventID, userID primitive.ObjectID, input UpdateAttendanceInput, markedBy primitive.ObjectID) (*entity.Attendance, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	event, err := s.eventRepository.FindOneByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := authorizeOutcome(ctx, s.clubRepository, event, markedBy, userID); err != nil {
		return nil, err
	}

	attendance, err := s.attendanceRepository.UpdateOne(ctx, eventID, userID, markedBy, input.Status, input.Notes)
	if err != nil {
		return nil, notFound(err, "attendance")
	}

	s.syncRegistration(ctx, eventID, userID, attendance.Status)

	return attendance, nil
}

// syncRegistration moves an existing registration record to the outcome implied by status.
func (s *AttendanceService) syncRegistration(ctx context.Context, eventID, userID primitive.ObjectID, status entity.AttendanceStatus) {
	_, err := s.registrationRepository.UpdateStatus(ctx, eventID, userID, status.RegistrationStatus())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Str("eventId", eventID.Hex()).Str("userId", userID.Hex()).Msg("Failed to sync registration with attendance")
	}
}
