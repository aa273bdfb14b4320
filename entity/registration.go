package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationAttended   RegistrationStatus = "attended"
	RegistrationNoShow     RegistrationStatus = "no-show"
)

var RegistrationStatuses = []RegistrationStatus{
	RegistrationRegistered,
	RegistrationCancelled,
	RegistrationAttended,
	RegistrationNoShow,
}

func (s RegistrationStatus) Valid() bool {
	return slices.Contains(RegistrationStatuses, s)
}

type Registration struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID  primitive.ObjectID `bson:"user" json:"userId"`
	User    *User              `bson:"userDoc,omitempty" json:"user,omitempty"`
	EventID primitive.ObjectID `bson:"event" json:"eventId"`

	RegistrationDate time.Time          `bson:"registrationDate" json:"registrationDate"`
	Status           RegistrationStatus `bson:"status" json:"status"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
