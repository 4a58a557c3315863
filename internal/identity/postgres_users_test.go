package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "password_hash", "created_at"}

func setupMockDB(t *testing.T) (*PostgresUsers, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresUsersFromDB(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := setupMockDB(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ann@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	user, err := repo.Create(context.Background(), "ann@example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ann@example.com", "hash").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), "ann@example.com", "hash")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreate_OtherError(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), "ann@example.com", "hash")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
	assert.Contains(t, err.Error(), "insert user")
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := setupMockDB(t)
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT id, email, password_hash, created_at FROM users WHERE email").
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u1", "ann@example.com", "hash", created))

	user, err := repo.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetByID_QueryError(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs("u1").
		WillReturnError(errors.New("timeout"))

	_, err := repo.GetByID(context.Background(), "u1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
