package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClubService struct {
	clubRepository ClubRepository
	userRepository UserRepository
}

func NewClubService(clubRepository ClubRepository, userRepository UserRepository) *ClubService {
	return &ClubService{
		clubRepository: clubRepository,
		userRepository: userRepository,
	}
}

type CreateClubInput struct {
	Name               string `json:"name" validate:"required"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	FacultyCoordinator string `json:"facultyCoordinator" validate:"required,objectid"`
}

func (s *ClubService) List(ctx context.Context) ([]*entity.Club, error) {
	return s.clubRepository.FindAll(ctx)
}

func (s *ClubService) GetByID(ctx context.Context, ID primitive.ObjectID) (*entity.Club, error) {
	club, err := s.clubRepository.FindOneByID(ctx, ID)
	if err != nil {
		return nil, notFound(err, "club")
	}
	return club, nil
}

func (s *ClubService) Create(ctx context.Context, input CreateClubInput) (*entity.Club, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.FacultyCoordinator = strings.TrimSpace(input.FacultyCoordinator)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	coordinatorID, err := parseID(input.FacultyCoordinator, "facultyCoordinator")
	if err != nil {
		return nil, err
	}

	coordinator, err := s.userRepository.FindOneByID(ctx, coordinatorID)
	if err != nil {
		return nil, notFound(err, "faculty coordinator")
	}
	if !coordinator.CanCoordinate() {
		return nil, validationError("user %s with role %q cannot coordinate a club", coordinator.ID.Hex(), coordinator.Role)
	}

	club, err := s.clubRepository.InsertOne(ctx, entity.Club{
		Name:                 input.Name,
		Description:          strings.TrimSpace(input.Description),
		Category:             strings.TrimSpace(input.Category),
		FacultyCoordinatorID: coordinator.ID,
		IsActive:             true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: club %q already exists", ErrConflict, input.Name)
	}
	return club, err
}
