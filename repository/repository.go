package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	EventsCollection        = "events"
	ClubsCollection         = "clubs"
	UsersCollection         = "users"
	RegistrationsCollection = "registrations"
	AttendancesCollection   = "attendances"
)

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

// lookupOne joins a single document from another collection by the id stored in localField
// and unwinds it into as, keeping only the projected fields.
func lookupOne(from, localField, as string, project bson.M) bson.A {
	return bson.A{
		bson.M{
			"$lookup": bson.M{
				"from": from,
				"let":  bson.M{"refId": "$" + localField},
				"pipeline": bson.A{
					bson.M{
						"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$refId"}}},
					},
					bson.M{
						"$project": project,
					},
				},
				"as": as,
			},
		},
		bson.M{
			"$unwind": bson.M{
				"path":                       "$" + as,
				"preserveNullAndEmptyArrays": true,
			},
		},
	}
}

var userSummary = bson.M{"name": 1, "email": 1, "department": 1, "role": 1}
