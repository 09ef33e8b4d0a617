package models

import "time"

// Contact is an inbound support message. Append-only, optionally linked to a
// registered user.
type Contact struct {
	ID        int
	UserUID   string // empty for anonymous submissions
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// DummyContact receives a contact-form JSON request.
type DummyContact struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}
