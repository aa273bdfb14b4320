package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name       string             `bson:"name,omitempty" json:"name,omitempty"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Role       string             `bson:"role,omitempty" json:"role,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

const (
	StudentRole = "student"
	FacultyRole = "faculty"
	AdminRole   = "admin"
)

var UserRoles = []string{StudentRole, FacultyRole, AdminRole}

func (u *User) CanCoordinate() bool {
	return u.Role == FacultyRole || u.Role == AdminRole
}
