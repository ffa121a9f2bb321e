package repositories_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/driftmail/newsletter/internal/core/ports"
	"github.com/driftmail/newsletter/internal/infrastructure/db"
	"github.com/driftmail/newsletter/internal/infrastructure/repositories"
)

func newMockRepo(t *testing.T) (*db.Database, sqlmock.Sqlmock, ports.SubscriberRepository) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	database := &db.Database{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return database, mock, repositories.NewSubscriberRepository(database, nil)
}

func validSubscriber(t *testing.T) subscription.NewSubscriber {
	t.Helper()
	sub, err := subscription.ParseNewSubscriber("le guin", "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	return sub
}

func TestInsertSubscriber_Success(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", sqlmock.AnyArg(), "pending_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	id, err := repo.InsertSubscriber(context.Background(), tx, validSubscriber(t))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSubscriber_DuplicateEmail(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "subscriptions_email_key"})

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	_, err = repo.InsertSubscriber(context.Background(), tx, validSubscriber(t))
	require.ErrorIs(t, err, subscription.ErrDuplicateEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSubscriber_OtherStorageFailure(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnError(&pq.Error{Code: "53300"}) // too_many_connections

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	_, err = repo.InsertSubscriber(context.Background(), tx, validSubscriber(t))
	require.Error(t, err)
	require.NotErrorIs(t, err, subscription.ErrDuplicateEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupIDByName(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT id FROM subscriptions").
		WithArgs("le guin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.LookupIDByName(context.Background(), "le guin")
	require.NoError(t, err)
	require.Equal(t, id, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupIDByName_NotFound(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id FROM subscriptions").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.LookupIDByName(context.Background(), "nobody")
	require.ErrorIs(t, err, subscription.ErrSubscriberNotFound)
}

func TestInsertToken(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscription_tokens").
		WithArgs("tok", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.InsertToken(context.Background(), tx, id, "tok"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceToken(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE subscription_tokens").
		WithArgs("newtok", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceToken(context.Background(), tx, id, "newtok"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceToken_NoRow(t *testing.T) {
	database, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := database.BeginTx(context.Background())
	require.NoError(t, err)

	require.Error(t, repo.ReplaceToken(context.Background(), tx, id, "newtok"))
}

func TestLookupByToken(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT st.subscriber_id, s.status").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id", "status"}).
			AddRow(id.String(), "pending_confirmation"))

	owner, err := repo.LookupByToken(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, id, owner.SubscriberID)
	require.Equal(t, subscription.StatusPendingConfirmation, owner.Status)
}

func TestLookupByToken_NotFound(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT st.subscriber_id, s.status").
		WithArgs("doesnotexist").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id", "status"}))

	_, err := repo.LookupByToken(context.Background(), "doesnotexist")
	require.ErrorIs(t, err, subscription.ErrTokenNotFound)
}

func TestMarkConfirmed(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE subscriptions SET status").
		WithArgs("confirmed", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkConfirmed(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkConfirmed_MissingSubscriber(t *testing.T) {
	_, mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE subscriptions SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.Error(t, repo.MarkConfirmed(context.Background(), uuid.New()))
}
