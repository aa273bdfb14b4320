package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

var AttendanceStatuses = []AttendanceStatus{AttendancePresent, AttendanceAbsent, AttendanceLate}

func (s AttendanceStatus) Valid() bool {
	return slices.Contains(AttendanceStatuses, s)
}

// RegistrationStatus is the registration outcome implied by an attendance mark.
func (s AttendanceStatus) RegistrationStatus() RegistrationStatus {
	if s == AttendanceAbsent {
		return RegistrationNoShow
	}
	return RegistrationAttended
}

type Attendance struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID  primitive.ObjectID `bson:"user" json:"userId"`
	User    *User              `bson:"userDoc,omitempty" json:"user,omitempty"`
	EventID primitive.ObjectID `bson:"event" json:"eventId"`

	MarkedByID primitive.ObjectID `bson:"markedBy" json:"markedById"`
	MarkedAt   time.Time          `bson:"markedAt" json:"markedAt"`
	Status     AttendanceStatus   `bson:"status" json:"status"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
