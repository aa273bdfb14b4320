package repository

import (
	"context"
	"time"

	"github.com/joeyave/club-events/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RegistrationRepository struct {
	collection *mongo.Collection
}

func NewRegistrationRepository(db *mongo.Database) *RegistrationRepository {
	return &RegistrationRepository{
		collection: db.Collection(RegistrationsCollection),
	}
}

func (r *RegistrationRepository) FindManyByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Registration, error) {
	return r.find(ctx, bson.M{"event": eventID})
}

func (r *RegistrationRepository) FindManyByUserID(ctx context.Context, userID primitive.ObjectID) ([]*entity.Registration, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *RegistrationRepository) find(ctx context.Context, m bson.M) ([]*entity.Registration, error) {
	pipeline := bson.A{
		bson.M{
			"$match": m,
		},
		bson.M{
			"$sort": bson.D{
				{Key: "registrationDate", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
	}
	pipeline = append(pipeline, lookupOne(UsersCollection, "user", "userDoc", userSummary)...)

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	registrations := []*entity.Registration{}
	err = cur.All(ctx, &registrations)
	if err != nil {
		return nil, err
	}

	return registrations, nil
}

// Upsert sets the status of the (event, user) registration, creating the record on first use.
// registrationDate and createdAt are only written on insert.
func (r *RegistrationRepository) Upsert(ctx context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"event": eventID,
		"user":  userID,
	}

	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"registrationDate": now,
			"createdAt":        now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)

	result := r.collection.FindOneAndUpdate(ctx, filter, update, opts)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var registration *entity.Registration
	err := result.Decode(&registration)
	return registration, err
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, eventID, userID primitive.ObjectID, status entity.RegistrationStatus) (*entity.Registration, error) {
	filter := bson.M{
		"event": eventID,
		"user":  userID,
	}

	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	result := r.collection.FindOneAndUpdate(ctx, filter, update, opts)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var registration *entity.Registration
	err := result.Decode(&registration)
	return registration, err
}

func (r *RegistrationRepository) DeleteManyByEventID(ctx context.Context, eventID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"event": eventID})
	return err
}
