package ports

import (
	"context"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
)

// ConfirmationNotifier delivers a confirmation link to a subscriber. The
// channel is chosen at construction time: the SendGrid implementation sends
// an email and returns an empty echo, the link-echo implementation returns
// the link so the HTTP response can carry it.
type ConfirmationNotifier interface {
	Notify(ctx context.Context, sub subscription.NewSubscriber, link string) (echoedLink string, err error)
}
