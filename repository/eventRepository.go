package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/joeyave/club-events/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection(EventsCollection),
	}
}

// EventFilter describes a search over events. Zero fields are ignored.
type EventFilter struct {
	Title           string
	Location        string
	EventType       string
	StartFrom       *time.Time
	EndUntil        *time.Time
	Tags            []string
	IncludeInactive bool
}

func (f EventFilter) Match() bson.M {
	m := bson.M{}

	if !f.IncludeInactive {
		m["isActive"] = true
	}
	if f.Title != "" {
		m["title"] = containsInsensitive(f.Title)
	}
	if f.Location != "" {
		m["location"] = containsInsensitive(f.Location)
	}
	if f.EventType != "" {
		m["eventType"] = f.EventType
	}
	if f.StartFrom != nil {
		m["startDate"] = bson.M{"$gte": f.StartFrom.UTC()}
	}
	if f.EndUntil != nil {
		m["endDate"] = bson.M{"$lte": f.EndUntil.UTC()}
	}
	if len(f.Tags) > 0 {
		m["tags"] = bson.M{"$in": f.Tags}
	}

	return m
}

func containsInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

var byStartDate = bson.M{
	"$sort": bson.D{
		{Key: "startDate", Value: 1},
		{Key: "_id", Value: 1},
	},
}

func (r *EventRepository) FindAll(ctx context.Context, activeOnly bool) ([]*entity.Event, error) {
	m := bson.M{}
	if activeOnly {
		m["isActive"] = true
	}
	return r.find(ctx, m, byStartDate)
}

func (r *EventRepository) FindMany(ctx context.Context, filter EventFilter) ([]*entity.Event, error) {
	return r.find(ctx, filter.Match(), byStartDate)
}

func (r *EventRepository) FindManyByClubID(ctx context.Context, clubID primitive.ObjectID) ([]*entity.Event, error) {
	return r.find(ctx, bson.M{"club": clubID, "isActive": true}, byStartDate)
}

func (r *EventRepository) FindManyByOrganizerID(ctx context.Context, organizerID primitive.ObjectID) ([]*entity.Event, error) {
	return r.find(ctx, bson.M{"organizer": organizerID}, byStartDate)
}

func (r *EventRepository) FindManyUpcoming(ctx context.Context, fromUTC time.Time, limit int) ([]*entity.Event, error) {
	return r.find(ctx,
		bson.M{
			"isActive":  true,
			"startDate": bson.M{"$gt": fromUTC},
		},
		byStartDate,
		bson.M{
			"$limit": limit,
		},
	)
}

func (r *EventRepository) FindOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	events, err := r.find(ctx, bson.M{"_id": ID})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}

	return events[0], nil
}

func (r *EventRepository) find(ctx context.Context, m bson.M, opts ...bson.M) ([]*entity.Event, error) {
	pipeline := bson.A{
		bson.M{
			"$match": m,
		},
	}
	pipeline = append(pipeline, lookupOne(ClubsCollection, "club", "clubDoc", bson.M{"name": 1, "description": 1, "category": 1})...)
	pipeline = append(pipeline, lookupOne(UsersCollection, "organizer", "organizerDoc", userSummary)...)
	pipeline = append(pipeline,
		bson.M{
			"$lookup": bson.M{
				"from": UsersCollection,
				"let": bson.M{
					"registrationIds": bson.M{"$ifNull": bson.A{"$registrations", bson.A{}}},
				},
				"pipeline": bson.A{
					bson.M{
						"$match": bson.M{"$expr": bson.M{"$in": bson.A{"$_id", "$$registrationIds"}}},
					},
					bson.M{
						"$addFields": bson.M{
							"sort": bson.M{
								"$indexOfArray": bson.A{"$$registrationIds", "$_id"},
							},
						},
					},
					bson.M{
						"$sort": bson.M{"sort": 1},
					},
					bson.M{
						"$project": bson.M{"name": 1, "email": 1},
					},
				},
				"as": "registrants",
			},
		},
	)

	for _, o := range opts {
		pipeline = append(pipeline, o)
	}

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	events := []*entity.Event{}
	err = cur.All(ctx, &events)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) InsertOne(ctx context.Context, event entity.Event) (*entity.Event, error) {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.RegistrationIDs == nil {
		event.RegistrationIDs = []primitive.ObjectID{}
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}

	event.Club = nil
	event.Organizer = nil
	event.Registrations = nil

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return nil, translateError(err)
	}

	return r.FindOneByID(ctx, event.ID)
}

// EventChanges holds a partial event update. Nil fields are left unchanged.
type EventChanges struct {
	Title       *string
	Description *string
	Location    *string
	EventType   *string
	ImageURL    *string
	StartDate   *time.Time
	EndDate     *time.Time
	MaxCapacity *int
	Tags        []string

	// ExpectStartDate and ExpectEndDate make the update conditional on the stored dates.
	ExpectStartDate *time.Time
	ExpectEndDate   *time.Time
}

func (c EventChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Location == nil && c.EventType == nil &&
		c.ImageURL == nil && c.StartDate == nil && c.EndDate == nil && c.MaxCapacity == nil && c.Tags == nil
}

func (c EventChanges) Set() bson.M {
	set := bson.M{}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.Description != nil {
		set["description"] = *c.Description
	}
	if c.Location != nil {
		set["location"] = *c.Location
	}
	if c.EventType != nil {
		set["eventType"] = *c.EventType
	}
	if c.ImageURL != nil {
		set["imageUrl"] = *c.ImageURL
	}
	if c.StartDate != nil {
		set["startDate"] = c.StartDate.UTC()
	}
	if c.EndDate != nil {
		set["endDate"] = c.EndDate.UTC()
	}
	if c.MaxCapacity != nil {
		set["maxCapacity"] = *c.MaxCapacity
	}
	if c.Tags != nil {
		set["tags"] = c.Tags
	}
	return set
}

// Guard returns the extra filter conditions the update is subject to.
func (c EventChanges) Guard() bson.M {
	guard := bson.M{}
	if c.ExpectStartDate != nil {
		guard["startDate"] = c.ExpectStartDate.UTC()
	}
	if c.ExpectEndDate != nil {
		guard["endDate"] = c.ExpectEndDate.UTC()
	}
	if c.MaxCapacity != nil {
		guard["$expr"] = bson.M{"$lte": bson.A{registrationCount, *c.MaxCapacity}}
	}
	return guard
}

// registrationCount is the aggregation expression for the number of stored registrants.
var registrationCount = bson.M{"$size": bson.M{"$ifNull": bson.A{"$registrations", bson.A{}}}}

// registrantPushFilter matches the event only while it is active, has a free seat
// (or no capacity at all) and does not hold userID yet.
func registrantPushFilter(eventID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":           eventID,
		"isActive":      true,
		"registrations": bson.M{"$ne": userID},
		"$expr": bson.M{
			"$or": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$maxCapacity", nil}}, nil}},
				bson.M{"$lt": bson.A{registrationCount, "$maxCapacity"}},
			},
		},
	}
}

func registrantPullFilter(eventID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":           eventID,
		"registrations": userID,
	}
}

// Update applies changes when the event still satisfies the changes' guard.
// ErrNotFound is returned when no document matched the id and guard together.
func (r *EventRepository) Update(ctx context.Context, ID primitive.ObjectID, changes EventChanges) (*entity.Event, error) {
	return r.updateFields(ctx, ID, changes.Set(), changes.Guard())
}

func (r *EventRepository) updateFields(ctx context.Context, ID primitive.ObjectID, set bson.M, guard bson.M) (*entity.Event, error) {
	filter := bson.M{"_id": ID}
	for k, v := range guard {
		filter[k] = v
	}

	set["updatedAt"] = time.Now().UTC()
	update := bson.M{
		"$set": set,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	result := r.collection.FindOneAndUpdate(ctx, filter, update, opts)
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var newEvent *entity.Event
	err := result.Decode(&newEvent)
	if err != nil {
		return nil, err
	}

	return r.FindOneByID(ctx, newEvent.ID)
}

func (r *EventRepository) Deactivate(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	return r.updateFields(ctx, ID, bson.M{"isActive": false}, nil)
}

func (r *EventRepository) DeleteOneByID(ctx context.Context, ID primitive.ObjectID) (*entity.Event, error) {
	result := r.collection.FindOneAndDelete(ctx, bson.M{"_id": ID})
	if result.Err() != nil {
		return nil, translateError(result.Err())
	}

	var deleted *entity.Event
	err := result.Decode(&deleted)
	return deleted, err
}

// PushRegistrant appends userID to the event's registrations in a single conditional update.
// It reports false when the event is missing, inactive, full or already holds userID.
func (r *EventRepository) PushRegistrant(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	filter := registrantPushFilter(eventID, userID)

	update := bson.M{
		"$push": bson.M{
			"registrations": userID,
		},
		"$set": bson.M{
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return result.MatchedCount == 1, nil
}

// PullRegistrant removes userID from the event's registrations.
// It reports false when the event is missing or userID is not registered.
func (r *EventRepository) PullRegistrant(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	filter := registrantPullFilter(eventID, userID)

	update := bson.M{
		"$pull": bson.M{
			"registrations": userID,
		},
		"$set": bson.M{
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return result.MatchedCount == 1, nil
}

// ForEach streams raw events (without joins) to fn until the cursor is exhausted or fn fails.
func (r *EventRepository) ForEach(ctx context.Context, fn func(event *entity.Event) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx) //nolint:errcheck

	for cursor.Next(ctx) {
		var event entity.Event
		if err := cursor.Decode(&event); err != nil {
			return err
		}
		if err := fn(&event); err != nil {
			return err
		}
	}

	return cursor.Err()
}
