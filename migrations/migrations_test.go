package migrations

import (
	"testing"

	"github.com/joeyave/club-events/repository"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPairIndexesAreUnique(t *testing.T) {
	for _, collection := range []string{repository.RegistrationsCollection, repository.AttendancesCollection} {
		models := Indexes[collection]
		if !assert.NotEmpty(t, models, collection) {
			continue
		}

		pair := models[0]
		assert.Equal(t, bson.D{{Key: "user", Value: 1}, {Key: "event", Value: 1}}, pair.Keys, collection)
		if assert.NotNil(t, pair.Options, collection) && assert.NotNil(t, pair.Options.Unique, collection) {
			assert.True(t, *pair.Options.Unique, collection)
		}
	}
}

func TestEveryCollectionHasIndexes(t *testing.T) {
	for _, collection := range []string{
		repository.EventsCollection,
		repository.ClubsCollection,
		repository.UsersCollection,
		repository.RegistrationsCollection,
		repository.AttendancesCollection,
	} {
		assert.NotEmpty(t, Indexes[collection], collection)
	}
}
