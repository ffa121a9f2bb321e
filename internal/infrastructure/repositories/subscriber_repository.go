package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/driftmail/newsletter/internal/core/ports"
	"github.com/driftmail/newsletter/internal/infrastructure/db"
)

// uniqueViolation is the Postgres error code raised on unique constraint
// violations, which the subscribe flow repurposes as its duplicate-email
// branch.
const uniqueViolation = pq.ErrorCode("23505")

// SubscriberRepository implements the subscriber repository interface over
// Postgres.
type SubscriberRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewSubscriberRepository creates a new subscriber repository
func NewSubscriberRepository(database *db.Database, logger *logrus.Logger) ports.SubscriberRepository {
	return &SubscriberRepository{
		db:     database,
		logger: logger,
	}
}

// sqlxTx unwraps the transaction handle opened by the database layer.
func sqlxTx(tx ports.Transaction) (*db.Tx, error) {
	handle, ok := tx.(*db.Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction handle %T", tx)
	}
	return handle, nil
}

// InsertSubscriber inserts a new subscriber with status pending_confirmation.
// A unique-constraint violation on email is reported as
// subscription.ErrDuplicateEmail so the caller can branch on it.
func (r *SubscriberRepository) InsertSubscriber(ctx context.Context, tx ports.Transaction, sub subscription.NewSubscriber) (uuid.UUID, error) {
	handle, err := sqlxTx(tx)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = handle.ExecContext(ctx, query, id, sub.Email(), sub.Name(), time.Now().UTC(), subscription.StatusPendingConfirmation)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"email": sub.Email()}).Debug("db: email already subscribed")
			}
			return uuid.Nil, subscription.ErrDuplicateEmail
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": sub.Email()}).WithError(err).Error("db: failed to insert subscriber")
		}
		return uuid.Nil, fmt.Errorf("failed to insert subscriber: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"subscriber_id": id, "email": sub.Email()}).Info("db: subscriber created")
	}

	return id, nil
}

// LookupIDByName resolves a subscriber id from the submitted name. Only used
// on the duplicate-email recovery path.
func (r *SubscriberRepository) LookupIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `SELECT id FROM subscriptions WHERE name = $1`

	err := r.db.DB.GetContext(ctx, &id, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"name": name}).Debug("db: subscriber not found by name")
			}
			return uuid.Nil, subscription.ErrSubscriberNotFound
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"name": name}).WithError(err).Error("db: failed to look up subscriber by name")
		}
		return uuid.Nil, fmt.Errorf("failed to look up subscriber by name: %w", err)
	}

	return id, nil
}

// InsertToken stores the first confirmation token for a subscriber.
func (r *SubscriberRepository) InsertToken(ctx context.Context, tx ports.Transaction, subscriberID uuid.UUID, token string) error {
	handle, err := sqlxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)`

	if _, err := handle.ExecContext(ctx, query, token, subscriberID); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"subscriber_id": subscriberID}).WithError(err).Error("db: failed to insert token")
		}
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return nil
}

// ReplaceToken overwrites the single token row for an existing subscriber,
// so only the newest confirmation link stays valid.
func (r *SubscriberRepository) ReplaceToken(ctx context.Context, tx ports.Transaction, subscriberID uuid.UUID, token string) error {
	handle, err := sqlxTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE subscription_tokens
		SET subscription_token = $1
		WHERE subscriber_id = $2`

	result, err := handle.ExecContext(ctx, query, token, subscriberID)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"subscriber_id": subscriberID}).WithError(err).Error("db: failed to replace token")
		}
		return fmt.Errorf("failed to replace token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"subscriber_id": subscriberID}).Debug("db: replace affected 0 rows - token not found")
		}
		return fmt.Errorf("no token row for subscriber %s", subscriberID)
	}

	return nil
}

// LookupByToken resolves a token to the owning subscriber id and its current
// status. Replaced tokens no longer match and report ErrTokenNotFound.
func (r *SubscriberRepository) LookupByToken(ctx context.Context, token string) (*subscription.TokenOwner, error) {
	var owner subscription.TokenOwner
	query := `
		SELECT st.subscriber_id, s.status
		FROM subscription_tokens AS st
		JOIN subscriptions AS s ON s.id = st.subscriber_id
		WHERE st.subscription_token = $1`

	err := r.db.DB.GetContext(ctx, &owner, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, subscription.ErrTokenNotFound
		}
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to look up subscriber by token")
		}
		return nil, fmt.Errorf("failed to look up subscriber by token: %w", err)
	}

	return &owner, nil
}

// MarkConfirmed sets the subscriber status to confirmed. Safe to call when
// the status is already confirmed; the service guards against redundant
// transitions.
func (r *SubscriberRepository) MarkConfirmed(ctx context.Context, subscriberID uuid.UUID) error {
	query := `UPDATE subscriptions SET status = $1 WHERE id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, subscription.StatusConfirmed, subscriberID)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"subscriber_id": subscriberID}).WithError(err).Error("db: failed to mark subscriber confirmed")
		}
		return fmt.Errorf("failed to mark subscriber confirmed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscriber with ID %s not found", subscriberID)
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"subscriber_id": subscriberID}).Info("db: subscriber confirmed")
	}

	return nil
}
