package migrations

import (
	"context"
	"fmt"

	"github.com/joeyave/club-events/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func asc(keys ...string) bson.D {
	d := bson.D{}
	for _, key := range keys {
		d = append(d, bson.E{Key: key, Value: 1})
	}
	return d
}

// Indexes lists the indexes each collection must carry.
// The unique (user, event) pairs back the one-registration and one-attendance rules.
var Indexes = map[string][]mongo.IndexModel{
	repository.EventsCollection: {
		{Keys: asc("isActive", "startDate")},
		{Keys: asc("club")},
		{Keys: asc("organizer")},
		{Keys: asc("tags")},
		{Keys: asc("eventType")},
	},
	repository.ClubsCollection: {
		{Keys: asc("name"), Options: options.Index().SetUnique(true)},
		{Keys: asc("facultyCoordinator")},
	},
	repository.UsersCollection: {
		{Keys: asc("email"), Options: options.Index().SetUnique(true)},
	},
	repository.RegistrationsCollection: {
		{Keys: asc("user", "event"), Options: options.Index().SetUnique(true)},
		{Keys: asc("event")},
		{Keys: asc("user")},
		{Keys: asc("status")},
	},
	repository.AttendancesCollection: {
		{Keys: asc("user", "event"), Options: options.Index().SetUnique(true)},
		{Keys: asc("event")},
		{Keys: asc("user")},
		{Keys: asc("markedBy")},
		{Keys: asc("status")},
	},
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range Indexes {
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes for %s: %w", collection, err)
		}
	}
	return nil
}
