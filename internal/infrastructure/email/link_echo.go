package email

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/driftmail/newsletter/internal/core/ports"
)

// LinkEchoNotifier hands the confirmation link back to the caller instead of
// delivering an email. Used by tests and local setups where no outbound mail
// is wanted.
type LinkEchoNotifier struct {
	logger *logrus.Logger
}

// NewLinkEchoNotifier creates a confirmation notifier that echoes the link
func NewLinkEchoNotifier(logger *logrus.Logger) ports.ConfirmationNotifier {
	return &LinkEchoNotifier{logger: logger}
}

func (n *LinkEchoNotifier) Notify(ctx context.Context, sub subscription.NewSubscriber, link string) (string, error) {
	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{"to": sub.Email()}).Debug("echoing confirmation link instead of sending email")
	}
	return link, nil
}
