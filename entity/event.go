package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	Location    string             `bson:"location" json:"location"`

	ClubID primitive.ObjectID `bson:"club" json:"clubId"`
	Club   *Club              `bson:"clubDoc,omitempty" json:"club,omitempty"`

	OrganizerID primitive.ObjectID `bson:"organizer" json:"organizerId"`
	Organizer   *User              `bson:"organizerDoc,omitempty" json:"organizer,omitempty"`

	// MaxCapacity is nil for events without a registration limit.
	MaxCapacity *int     `bson:"maxCapacity,omitempty" json:"maxCapacity,omitempty"`
	EventType   string   `bson:"eventType,omitempty" json:"eventType,omitempty"`
	ImageURL    string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Tags        []string `bson:"tags" json:"tags"`

	RegistrationIDs []primitive.ObjectID `bson:"registrations" json:"registrationIds"`
	Registrations   []*User              `bson:"registrants,omitempty" json:"registrations"`

	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (e *Event) HasRegistrant(userID primitive.ObjectID) bool {
	return slices.Contains(e.RegistrationIDs, userID)
}

func (e *Event) IsFull() bool {
	return e.MaxCapacity != nil && len(e.RegistrationIDs) >= *e.MaxCapacity
}

// SpotsLeft returns -1 for events without a capacity limit.
func (e *Event) SpotsLeft() int {
	if e.MaxCapacity == nil {
		return -1
	}
	left := *e.MaxCapacity - len(e.RegistrationIDs)
	if left < 0 {
		return 0
	}
	return left
}

func (e *Event) HasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if slices.Contains(e.Tags, tag) {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(normalized, tag) {
			continue
		}
		normalized = append(normalized, tag)
	}
	return normalized
}

// Recipient is a single reminder addressee.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (e *Event) Recipients() []Recipient {
	recipients := make([]Recipient, 0, len(e.Registrations))
	for _, user := range e.Registrations {
		if user == nil || user.Email == "" {
			continue
		}
		recipients = append(recipients, Recipient{Name: user.Name, Email: user.Email})
	}
	return recipients
}
