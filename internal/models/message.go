package models

import (
	"time"
)

// Message is one contact form body owned by a Person.
type Message struct {
	ID        int64     `json:"id"`
	PersonID  int64     `json:"person_id"`
	Contents  string    `json:"contents"`
	EmailSent bool      `json:"email_sent"`
	SMSSent   bool      `json:"sms_sent"` // reserved for a text message channel
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates an unsaved Message with both notification flags unset
func NewMessage(personID int64, contents string) *Message {
	return &Message{
		PersonID: personID,
		Contents: contents,
	}
}

// Submission is a message joined with the person who sent it.
type Submission struct {
	Message *Message
	Person  *Person
}
