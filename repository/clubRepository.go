package repository

import (
	"context"
	"time"

	"github.com/joeyave/club-events/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ClubRepository struct {
	collection *mongo.Collection
}

func NewClubRepository(db *mongo.Database) *ClubRepository {
	return &ClubRepository{
		collection: db.Collection(ClubsCollection),
	}
}

func (r *ClubRepository) FindAll(ctx context.Context) ([]*entity.Club, error) {
	return r.find(ctx, bson.M{})
}

func (r *ClubRepository) FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Club, error) {
	clubs, err := r.find(ctx, bson.M{"_id": ID})
	if err != nil {
		return nil, err
	}
	if len(clubs) == 0 {
		return nil, ErrNotFound
	}

	return clubs[0], nil
}

func (r *ClubRepository) find(ctx context.Context, m bson.M) ([]*entity.Club, error) {
	pipeline := bson.A{
		bson.M{
			"$match": m,
		},
		bson.M{
			"$sort": bson.M{
				"name": 1,
			},
		},
	}
	pipeline = append(pipeline, lookupOne(UsersCollection, "facultyCoordinator", "facultyCoordinatorDoc", userSummary)...)

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	clubs := []*entity.Club{}
	err = cur.All(ctx, &clubs)
	if err != nil {
		return nil, err
	}

	return clubs, nil
}

func (r *ClubRepository) InsertOne(ctx context.Context, club entity.Club) (*entity.Club, error) {
	if club.ID.IsZero() {
		club.ID = primitive.NewObjectID()
	}
	if club.EventIDs == nil {
		club.EventIDs = []primitive.ObjectID{}
	}
	if club.CreatedAt.IsZero() {
		club.CreatedAt = time.Now().UTC()
	}
	club.FacultyCoordinator = nil

	_, err := r.collection.InsertOne(ctx, club)
	if err != nil {
		return nil, translateError(err)
	}

	return r.FindOneByID(ctx, club.ID)
}

func (r *ClubRepository) PushEventID(ctx context.Context, clubID, eventID primitive.ObjectID) error {
	filter := bson.M{"_id": clubID}

	update := bson.M{
		"$addToSet": bson.M{
			"events": eventID,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *ClubRepository) PullEventID(ctx context.Context, clubID, eventID primitive.ObjectID) error {
	filter := bson.M{"_id": clubID}

	update := bson.M{
		"$pull": bson.M{
			"events": eventID,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}
