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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(UsersCollection),
	}
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *UserRepository) FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.User, error) {
	result := r.collection.FindOne(ctx, bson.M{"_id": ID})
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var user *entity.User
	err := result.Decode(&user)
	return user, err
}

func (r *UserRepository) find(ctx context.Context, m bson.M) ([]*entity.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.collection.Find(ctx, m, opts)
	if err != nil {
		return nil, err
	}

	users := []*entity.User{}
	err = cur.All(ctx, &users)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) InsertOne(ctx context.Context, user entity.User) (*entity.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}
