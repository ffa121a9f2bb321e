package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Subscriber struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Email        string           `json:"email" db:"email"`
	Name         string           `json:"name" db:"name"`
	Status       SubscriberStatus `json:"status" db:"status"`
	SubscribedAt time.Time        `json:"subscribed_at" db:"subscribed_at"`
}

type SubscriberStatus string

const (
	StatusPendingConfirmation SubscriberStatus = "pending_confirmation"
	StatusConfirmed           SubscriberStatus = "confirmed"
)

func (s SubscriberStatus) IsValid() bool {
	switch s {
	case StatusPendingConfirmation, StatusConfirmed:
		return true
	default:
		return false
	}
}

// SubscribeRequest represents the form payload of POST /subscriptions.
type SubscribeRequest struct {
	Name  string `form:"name" validate:"required"`
	Email string `form:"email" validate:"required"`
}

// TokenOwner is the result of resolving a confirmation token back to its
// subscriber.
type TokenOwner struct {
	SubscriberID uuid.UUID        `db:"subscriber_id"`
	Status       SubscriberStatus `db:"status"`
}

// NewSubscriber is a name/email pair that has passed syntactic validation.
// It can only be obtained through ParseNewSubscriber.
type NewSubscriber struct {
	name  string
	email string
}

func (n NewSubscriber) Name() string  { return n.name }
func (n NewSubscriber) Email() string { return n.email }

const maxNameLength = 256

// forbiddenNameChars are rejected to keep subscriber names safe to embed in
// email bodies and log lines.
const forbiddenNameChars = `/()"<>\{}`

var validate = validator.New()

// ParseNewSubscriber validates the raw form fields and returns a validated
// pair. A failure is always a *ValidationError.
func ParseNewSubscriber(rawName, rawEmail string) (NewSubscriber, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return NewSubscriber{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > maxNameLength {
		return NewSubscriber{}, &ValidationError{Field: "name", Reason: fmt.Sprintf("must not exceed %d characters", maxNameLength)}
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return NewSubscriber{}, &ValidationError{Field: "name", Reason: "contains forbidden characters"}
	}

	email := strings.TrimSpace(rawEmail)
	if email == "" {
		return NewSubscriber{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return NewSubscriber{}, &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}

	return NewSubscriber{name: name, email: email}, nil
}
