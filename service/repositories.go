package service

import (
	"context"
	"time"

	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are satisfied by the MongoDB repositories and by memstore.

type EventRepository interface {
	FindAll(ctx context.Context, activeOnly bool) ([]*entity.Event, error)
	FindMany(ctx context.Context, filter repository.EventFilter) ([]*entity.Event, error)
	FindManyByClubID(ctx context.Context, clubID primitive.ObjectID) ([]*entity.Event, error)
	FindManyByOrganizerID(ctx context.Context, organizerID primitive.ObjectID) ([]*entity.Event, error)
	FindManyUpcoming(ctx context.Context, fromUTC time.Time, limit int) ([]*entity.Event, error)
	FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error)
	InsertOne(ctx context.Context, event entity.Event) (*entity.Event, error)
	Update(ctx context.Context, ID primitive.ObjectID, changes repository.EventChanges) (*entity.Event, error)
	Deactivate(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error)
	DeleteOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error)
	PushRegistrant(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
	PullRegistrant(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
}

type ClubRepository interface {
	FindAll(ctx context.Context) ([]*entity.Club, error)
	FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Club, error)
	InsertOne(ctx context.Context, club entity.Club) (*entity.Club, error)
	PushEventID(ctx context.Context, clubID, eventID primitive.ObjectID) error
	PullEventID(ctx context.Context, clubID, eventID primitive.ObjectID) error
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]*entity.User, error)
	FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.User, error)
	InsertOne(ctx context.Context, user entity.User) (*entity.User, error)
}

type RegistrationRepository interface {
	FindManyByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Registration, error)
	FindManyByUserID(ctx context.Context, userID primitive.ObjectID) ([]*entity.Registration, error)
	Upsert(ctx context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error)
	UpdateStatus(ctx context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error)
	DeleteManyByEventID(ctx context.Context, eventID primitive.ObjectID) error
}

type AttendanceRepository interface {
	FindManyByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Attendance, error)
	InsertOne(ctx context.Context, attendance entity.Attendance) (*entity.Attendance, error)
	UpdateOne(ctx context.Context, eventID, userID, markedBy primitive.ObjectID, status entity.AttendanceStatus, notes *string) (*entity.Attendance, error)
	DeleteManyByEventID(ctx context.Context, eventID primitive.ObjectID) error
}

// Notifier delivers a single reminder. Implementations live in the notifier package.
type Notifier interface {
	Notify(ctx context.Context, message entity.Reminder) error
}
