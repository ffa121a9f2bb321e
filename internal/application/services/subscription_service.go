package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/driftmail/newsletter/internal/core/ports"
)

// SubscriptionService drives the subscription state machine: it scopes the
// transaction around the subscriber and token writes, treats a duplicate
// email as token rotation, and withholds the commit until the confirmation
// link was handed to the notification channel.
type SubscriptionService struct {
	repo     ports.SubscriberRepository
	tx       ports.TransactionBeginner
	notifier ports.ConfirmationNotifier
	baseURL  string
	logger   *logrus.Logger
}

// NewSubscriptionService creates a new subscription service. baseURL is the
// public address confirmation links are built from.
func NewSubscriptionService(
	repo ports.SubscriberRepository,
	tx ports.TransactionBeginner,
	notifier ports.ConfirmationNotifier,
	baseURL string,
	logger *logrus.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Subscribe handles one subscription request end to end. Failures are typed:
// *subscription.ValidationError for malformed input, *subscription.StorageError
// for database failures, *subscription.UnexpectedError for collaborator
// failures. Resubmitting a known email succeeds and rotates its token.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *subscription.SubscribeRequest) (*ports.SubscribeOutcome, error) {
	sub, err := subscription.ParseNewSubscriber(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		return nil, &subscription.StorageError{Step: subscription.StepBeginTx, Err: err}
	}

	alreadyExists := false
	subscriberID, err := s.repo.InsertSubscriber(ctx, tx, sub)
	if err != nil {
		if !errors.Is(err, subscription.ErrDuplicateEmail) {
			_ = tx.Rollback()
			return nil, &subscription.StorageError{Step: subscription.StepInsert, Err: err}
		}

		// A resubmission is token rotation, not a failure. The failed insert
		// poisons the transaction, so resolve the subscriber outside of it
		// and continue in a fresh one.
		_ = tx.Rollback()

		// Known race: a concurrent delete or rename between the failed
		// insert and this read can leave the id stale or missing. Accepted;
		// it surfaces as a storage error below.
		subscriberID, err = s.repo.LookupIDByName(ctx, sub.Name())
		if err != nil {
			return nil, &subscription.StorageError{Step: subscription.StepLookup, Err: err}
		}

		tx, err = s.tx.BeginTx(ctx)
		if err != nil {
			return nil, &subscription.StorageError{Step: subscription.StepBeginTx, Err: err}
		}
		alreadyExists = true
	}

	token, err := GenerateSubscriptionToken()
	if err != nil {
		_ = tx.Rollback()
		return nil, &subscription.UnexpectedError{Context: "failed to generate subscription token", Err: err}
	}

	if alreadyExists {
		err = s.repo.ReplaceToken(ctx, tx, subscriberID, token)
	} else {
		err = s.repo.InsertToken(ctx, tx, subscriberID, token)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, &subscription.StorageError{Step: subscription.StepStoreToken, Err: err}
	}

	link := s.confirmationLink(token)
	echoedLink, err := s.notifier.Notify(ctx, sub, link)
	if err != nil {
		// Withhold the commit so nothing from this attempt persists.
		_ = tx.Rollback()
		return nil, &subscription.UnexpectedError{Context: "failed to deliver confirmation link", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &subscription.StorageError{Step: subscription.StepCommit, Err: err}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"subscriber_id":  subscriberID,
			"already_exists": alreadyExists,
		}).Info("subscription stored, confirmation link issued")
	}

	return &ports.SubscribeOutcome{
		SubscriberID:     subscriberID,
		AlreadyExists:    alreadyExists,
		ConfirmationLink: echoedLink,
	}, nil
}

// Confirm redeems a confirmation token. The transition to confirmed happens
// at most once per subscriber: an unknown or replaced token reports
// ErrTokenNotFound, a repeat redemption reports ErrAlreadyConfirmed.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	owner, err := s.repo.LookupByToken(ctx, token)
	if err != nil {
		if errors.Is(err, subscription.ErrTokenNotFound) {
			return subscription.ErrTokenNotFound
		}
		return &subscription.StorageError{Step: subscription.StepLookup, Err: err}
	}

	if owner.Status == subscription.StatusConfirmed {
		return subscription.ErrAlreadyConfirmed
	}

	if err := s.repo.MarkConfirmed(ctx, owner.SubscriberID); err != nil {
		return &subscription.StorageError{Step: subscription.StepConfirm, Err: err}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"subscriber_id": owner.SubscriberID}).Info("subscription confirmed")
	}

	return nil
}

func (s *SubscriptionService) confirmationLink(token string) string {
	return fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
}

var _ ports.SubscriptionService = (*SubscriptionService)(nil)
