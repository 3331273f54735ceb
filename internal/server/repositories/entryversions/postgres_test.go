package entryversions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicrunze/journal/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAt_Found(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT content_snapshot FROM entry_versions`).
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"content_snapshot"}).AddRow("Hello world"))

	snapshot, err := repo.SnapshotAt(context.Background(), uuid.New(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", snapshot)
}

func TestSnapshotAt_Missing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT content_snapshot FROM entry_versions`).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.SnapshotAt(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, common.ErrSnapshotMissing)
}

func TestListByEntry(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	entryID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT id, entry_id, version, content_snapshot, created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entry_id", "version", "content_snapshot", "created_at"}).
			AddRow(uuid.New(), entryID, int64(2), "v2", now).
			AddRow(uuid.New(), entryID, int64(1), "v1", now))

	versions, err := repo.ListByEntry(context.Background(), entryID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Version)
}
