package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "me@example.com",
		Name:         "Me",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Create(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, user.Email, created.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt).
			WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

		_, err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at", "last_login"}).
			AddRow(id, "me@example.com", "Me", []byte("hash"), time.Now(), nil)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("me@example.com").
			WillReturnRows(rows)

		u, err := repo.GetByEmail(context.Background(), "me@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Nil(t, u.LastLogin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at", "last_login"}))

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_TouchLogin(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET last_login`).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLogin(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
