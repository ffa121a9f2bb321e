package ports

import (
	"context"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/google/uuid"
)

// SubscriberRepository owns the storage of subscribers and their confirmation
// tokens. Mutating operations take an open Transaction and are atomic with
// its commit/rollback.
type SubscriberRepository interface {
	// InsertSubscriber inserts a new row with status pending_confirmation.
	// Returns subscription.ErrDuplicateEmail when the unique constraint on
	// email is violated; callers branch on it.
	InsertSubscriber(ctx context.Context, tx Transaction, sub subscription.NewSubscriber) (uuid.UUID, error)

	// LookupIDByName resolves a subscriber id from the submitted name. Used
	// only on the duplicate-email recovery path, outside a transaction.
	LookupIDByName(ctx context.Context, name string) (uuid.UUID, error)

	// InsertToken stores the first confirmation token for a subscriber.
	InsertToken(ctx context.Context, tx Transaction, subscriberID uuid.UUID, token string) error

	// ReplaceToken overwrites the existing token row for a subscriber,
	// invalidating any previously issued link.
	ReplaceToken(ctx context.Context, tx Transaction, subscriberID uuid.UUID, token string) error

	// LookupByToken resolves a token to its subscriber id and current status.
	// Returns subscription.ErrTokenNotFound for unknown or replaced tokens.
	LookupByToken(ctx context.Context, token string) (*subscription.TokenOwner, error)

	// MarkConfirmed sets the subscriber status to confirmed.
	MarkConfirmed(ctx context.Context, subscriberID uuid.UUID) error
}

// SubscribeOutcome reports a successful subscription request.
type SubscribeOutcome struct {
	SubscriberID  uuid.UUID
	AlreadyExists bool
	// ConfirmationLink is non-empty only when the notification channel echoes
	// the link back instead of delivering an email.
	ConfirmationLink string
}

// SubscriptionService drives the subscription state machine.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req *subscription.SubscribeRequest) (*SubscribeOutcome, error)
	Confirm(ctx context.Context, token string) error
}
