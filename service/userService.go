package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"
)

type UserService struct {
	userRepository UserRepository
}

func NewUserService(userRepository UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

type CreateUserInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department"`
	Role       string `json:"role" validate:"omitempty,oneof=student faculty admin"`
}

func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	return s.userRepository.FindAll(ctx)
}

func (s *UserService) GetByID(ctx context.Context, ID primitive.ObjectID) (*entity.User, error) {
	user, err := s.userRepository.FindOneByID(ctx, ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// Create stores a user. Emails are case-folded so uniqueness ignores case.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = cases.Fold().String(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = entity.StudentRole
	}

	user, err := s.userRepository.InsertOne(ctx, entity.User{
		Name:       input.Name,
		Email:      input.Email,
		Department: strings.TrimSpace(input.Department),
		Role:       input.Role,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: email %s is already in use", ErrConflict, input.Email)
	}
	return user, err
}
