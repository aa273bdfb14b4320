package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// Reminder is one message about an upcoming event addressed to a single registrant.
type Reminder struct {
	EventID primitive.ObjectID `json:"eventId"`
	To      Recipient          `json:"to"`
	From    string             `json:"from,omitempty"`
	Subject string             `json:"subject"`
	Body    string             `json:"body"`
}
