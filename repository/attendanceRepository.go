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

type AttendanceRepository struct {
	collection *mongo.Collection
}

func NewAttendanceRepository(db *mongo.Database) *AttendanceRepository {
	return &AttendanceRepository{
		collection: db.Collection(AttendancesCollection),
	}
}

func (r *AttendanceRepository) FindManyByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*entity.Attendance, error) {
	pipeline := bson.A{
		bson.M{
			"$match": bson.M{"event": eventID},
		},
		bson.M{
			"$sort": bson.D{
				{Key: "markedAt", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
	}
	pipeline = append(pipeline, lookupOne(UsersCollection, "user", "userDoc", userSummary)...)

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	attendances := []*entity.Attendance{}
	err = cur.All(ctx, &attendances)
	if err != nil {
		return nil, err
	}

	return attendances, nil
}

// InsertOne relies on the unique (user, event) index; a second mark yields ErrDuplicate.
func (r *AttendanceRepository) InsertOne(ctx context.Context, attendance entity.Attendance) (*entity.Attendance, error) {
	if attendance.ID.IsZero() {
		attendance.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if attendance.MarkedAt.IsZero() {
		attendance.MarkedAt = now
	}
	if attendance.Status == "" {
		attendance.Status = entity.AttendancePresent
	}
	attendance.CreatedAt = now
	attendance.UpdatedAt = now
	attendance.User = nil

	_, err := r.collection.InsertOne(ctx, attendance)
	if err != nil {
		return nil, translateError(err)
	}

	return &attendance, nil
}

// UpdateOne changes the status (and notes when given) of an existing mark and records
// markedBy as the one who marked it.
func (r *AttendanceRepository) UpdateOne(ctx context.Context, eventID, userID, markedBy primitive.ObjectID, status entity.AttendanceStatus, notes *string) (*entity.Attendance, error) {
	filter := bson.M{
		"event": eventID,
		"user":  userID,
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":    status,
		"markedBy":  markedBy,
		"markedAt":  now,
		"updatedAt": now,
	}
	if notes != nil {
		set["notes"] = *notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	result := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var attendance *entity.Attendance
	err := result.Decode(&attendance)
	return attendance, err
}

func (r *AttendanceRepository) DeleteManyByEventID(ctx context.Context, eventID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"event": eventID})
	return err
}
