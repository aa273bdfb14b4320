package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/joeyave/club-events/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// eventDocument stores event the way the driver would and reads it back as a raw document.
func eventDocument(t *testing.T, event entity.Event) bson.M {
	t.Helper()

	raw, err := bson.Marshal(event)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

// matches evaluates the query operators the repository filters rely on against doc.
func matches(t *testing.T, doc bson.M, filter bson.M) bool {
	t.Helper()

	for key, cond := range filter {
		if key == "$expr" {
			result, ok := evalExpr(t, doc, cond).(bool)
			require.True(t, ok, "$expr must evaluate to a boolean")
			if !result {
				return false
			}
			continue
		}

		value, present := doc[key]
		if op, ok := cond.(bson.M); ok {
			for name, arg := range op {
				switch name {
				case "$ne":
					if present && fieldEquals(value, arg) {
						return false
					}
				default:
					t.Fatalf("unsupported query operator %s", name)
				}
			}
			continue
		}
		if !present || !fieldEquals(value, cond) {
			return false
		}
	}
	return true
}

// fieldEquals follows query equality, where an array field matches when any element does.
func fieldEquals(value, want interface{}) bool {
	if arr, ok := value.(primitive.A); ok {
		for _, v := range arr {
			if sameValue(v, want) {
				return true
			}
		}
	}
	return sameValue(value, want)
}

func evalExpr(t *testing.T, doc bson.M, expr interface{}) interface{} {
	t.Helper()

	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$") {
			return doc[strings.TrimPrefix(e, "$")]
		}
		return e
	case bson.M:
		require.Len(t, e, 1, "expression must hold a single operator")
		for name, arg := range e {
			switch name {
			case "$or":
				for _, branch := range arg.(bson.A) {
					if b, _ := evalExpr(t, doc, branch).(bool); b {
						return true
					}
				}
				return false
			case "$eq":
				args := arg.(bson.A)
				return sameValue(evalExpr(t, doc, args[0]), evalExpr(t, doc, args[1]))
			case "$lt", "$lte":
				args := arg.(bson.A)
				left, lok := number(evalExpr(t, doc, args[0]))
				right, rok := number(evalExpr(t, doc, args[1]))
				if !lok || !rok {
					return false
				}
				if name == "$lt" {
					return left < right
				}
				return left <= right
			case "$size":
				arr, ok := evalExpr(t, doc, arg).(primitive.A)
				require.True(t, ok, "$size needs an array")
				return len(arr)
			case "$ifNull":
				args := arg.(bson.A)
				if v := evalExpr(t, doc, args[0]); v != nil {
					return v
				}
				return evalExpr(t, doc, args[1])
			default:
				t.Fatalf("unsupported expression operator %s", name)
			}
		}
	}
	return expr
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sameValue(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v interface{}) interface{} {
	if n, ok := number(v); ok {
		return n
	}
	if t, ok := v.(time.Time); ok {
		return primitive.NewDateTimeFromTime(t)
	}
	return v
}

func seats(n int) *int {
	return &n
}

func TestRegistrantPushFilter(t *testing.T) {
	eventID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	others := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	tests := []struct {
		name  string
		event entity.Event
		want  bool
	}{
		{
			name:  "no capacity and no registrations",
			event: entity.Event{ID: eventID, IsActive: true},
			want:  true,
		},
		{
			name:  "no capacity with registrations",
			event: entity.Event{ID: eventID, IsActive: true, RegistrationIDs: others},
			want:  true,
		},
		{
			name:  "free seat left",
			event: entity.Event{ID: eventID, IsActive: true, MaxCapacity: seats(3), RegistrationIDs: others},
			want:  true,
		},
		{
			name:  "full",
			event: entity.Event{ID: eventID, IsActive: true, MaxCapacity: seats(2), RegistrationIDs: others},
			want:  false,
		},
		{
			name:  "zero capacity",
			event: entity.Event{ID: eventID, IsActive: true, MaxCapacity: seats(0), RegistrationIDs: []primitive.ObjectID{}},
			want:  false,
		},
		{
			name:  "already registered",
			event: entity.Event{ID: eventID, IsActive: true, RegistrationIDs: []primitive.ObjectID{others[0], userID}},
			want:  false,
		},
		{
			name:  "inactive",
			event: entity.Event{ID: eventID, IsActive: false, MaxCapacity: seats(10)},
			want:  false,
		},
		{
			name:  "another event",
			event: entity.Event{ID: primitive.NewObjectID(), IsActive: true},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := eventDocument(t, tt.event)
			assert.Equal(t, tt.want, matches(t, doc, registrantPushFilter(eventID, userID)))
		})
	}
}

func TestRegistrantPullFilter(t *testing.T) {
	eventID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tests := []struct {
		name  string
		event entity.Event
		want  bool
	}{
		{
			name:  "registered",
			event: entity.Event{ID: eventID, IsActive: true, RegistrationIDs: []primitive.ObjectID{other, userID}},
			want:  true,
		},
		{
			name:  "registered on an inactive event",
			event: entity.Event{ID: eventID, RegistrationIDs: []primitive.ObjectID{userID}},
			want:  true,
		},
		{
			name:  "not registered",
			event: entity.Event{ID: eventID, IsActive: true, RegistrationIDs: []primitive.ObjectID{other}},
			want:  false,
		},
		{
			name:  "no registrations stored",
			event: entity.Event{ID: eventID, IsActive: true},
			want:  false,
		},
		{
			name:  "another event",
			event: entity.Event{ID: other, IsActive: true, RegistrationIDs: []primitive.ObjectID{userID}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := eventDocument(t, tt.event)
			assert.Equal(t, tt.want, matches(t, doc, registrantPullFilter(eventID, userID)))
		})
	}
}

func TestEventChangesGuardMatches(t *testing.T) {
	start := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	moved := start.Add(24 * time.Hour)
	registrants := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	event := entity.Event{
		ID:              primitive.NewObjectID(),
		IsActive:        true,
		StartDate:       start,
		EndDate:         end,
		RegistrationIDs: registrants,
	}

	tests := []struct {
		name    string
		changes EventChanges
		want    bool
	}{
		{
			name:    "no guard",
			changes: EventChanges{},
			want:    true,
		},
		{
			name:    "capacity equal to registrants",
			changes: EventChanges{MaxCapacity: seats(2)},
			want:    true,
		},
		{
			name:    "capacity above registrants",
			changes: EventChanges{MaxCapacity: seats(5)},
			want:    true,
		},
		{
			name:    "capacity below registrants",
			changes: EventChanges{MaxCapacity: seats(1)},
			want:    false,
		},
		{
			name:    "expected dates still stored",
			changes: EventChanges{ExpectStartDate: &start, ExpectEndDate: &end, StartDate: &moved},
			want:    true,
		},
		{
			name:    "start date moved meanwhile",
			changes: EventChanges{ExpectStartDate: &moved, ExpectEndDate: &end},
			want:    false,
		},
		{
			name:    "dates match but capacity too small",
			changes: EventChanges{ExpectStartDate: &start, ExpectEndDate: &end, MaxCapacity: seats(1)},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.changes.Guard()
			filter["_id"] = event.ID
			assert.Equal(t, tt.want, matches(t, eventDocument(t, event), filter))
		})
	}

	t.Run("capacity on an event without stored registrations", func(t *testing.T) {
		bare := event
		bare.RegistrationIDs = nil
		filter := EventChanges{MaxCapacity: seats(0)}.Guard()
		assert.True(t, matches(t, eventDocument(t, bare), filter))
	})
}
