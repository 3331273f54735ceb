package goals

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_VersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(`UPDATE goals SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), &models.Goal{ID: uuid.New(), UserID: uuid.New()}, 2)
	assert.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestDelete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(`DELETE FROM goals`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListChangedSince(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM goals WHERE user_id=\$1 AND updated_at > \$2`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "category", "description", "active", "version", "created_at", "updated_at",
		}).AddRow(uuid.New(), uuid.New(), "health", "run daily", true, int64(4), now, now))

	since := now.Add(-time.Hour)
	goals, err := repo.ListChangedSince(context.Background(), uuid.New(), &since)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "health", goals[0].Category)
}
