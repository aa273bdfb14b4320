package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Club struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`

	FacultyCoordinatorID primitive.ObjectID `bson:"facultyCoordinator,omitempty" json:"facultyCoordinatorId,omitempty"`
	FacultyCoordinator   *User              `bson:"facultyCoordinatorDoc,omitempty" json:"facultyCoordinator,omitempty"`

	// EventIDs are back-references only; events are owned by the events collection.
	EventIDs []primitive.ObjectID `bson:"events" json:"events"`

	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

func (c *Club) IsCoordinatedBy(userID primitive.ObjectID) bool {
	return !c.FacultyCoordinatorID.IsZero() && c.FacultyCoordinatorID == userID
}
