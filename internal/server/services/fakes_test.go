package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/server/models"
	attachmentsrepo "github.com/epicrunze/journal/internal/server/repositories/attachments"
	entriesrepo "github.com/epicrunze/journal/internal/server/repositories/entries"
	entryversionsrepo "github.com/epicrunze/journal/internal/server/repositories/entryversions"
	goalsrepo "github.com/epicrunze/journal/internal/server/repositories/goals"
	refreshtokensrepo "github.com/epicrunze/journal/internal/server/repositories/refreshtokens"
	usersrepo "github.com/epicrunze/journal/internal/server/repositories/users"
	"github.com/google/uuid"
	"testing"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	touchErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) TouchLogin(context.Context, uuid.UUID) error { return f.touchErr }

type fakeRefreshRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(context.Context, uuid.UUID, string, time.Duration) error {
	return f.createErr
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(context.Context, string) error { return f.delErr }

type fakeEntriesRepo struct {
	records map[uuid.UUID]*models.Entry
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{records: map[uuid.UUID]*models.Entry{}}
}

func (f *fakeEntriesRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Entry, error) {
	e, ok := f.records[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEntriesRepo) Create(_ context.Context, e *models.Entry) error {
	if _, ok := f.records[e.ID]; ok {
		return common.ErrAlreadyExists
	}
	cp := *e
	f.records[e.ID] = &cp
	return nil
}

func (f *fakeEntriesRepo) Update(_ context.Context, e *models.Entry, expectedVersion int64) error {
	cur, ok := f.records[e.ID]
	if !ok {
		return common.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return common.ErrVersionConflict
	}
	cp := *e
	f.records[e.ID] = &cp
	return nil
}

func (f *fakeEntriesRepo) List(_ context.Context, userID uuid.UUID, filter entriesrepo.ListFilter) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range f.records {
		if e.UserID != userID {
			continue
		}
		if filter.PendingRefine && !e.PendingRefine {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeEntriesRepo) ListChangedSince(_ context.Context, userID uuid.UUID, _ *time.Time) ([]*models.Entry, error) {
	return f.List(context.Background(), userID, entriesrepo.ListFilter{})
}

type fakeVersionsRepo struct {
	created []*models.EntryVersion
}

func (f *fakeVersionsRepo) Create(_ context.Context, v *models.EntryVersion) error {
	f.created = append(f.created, v)
	return nil
}

func (f *fakeVersionsRepo) SnapshotAt(context.Context, uuid.UUID, int64) (string, error) {
	return "", common.ErrSnapshotMissing
}

func (f *fakeVersionsRepo) ListByEntry(context.Context, uuid.UUID) ([]*models.EntryVersion, error) {
	return f.created, nil
}

// fakeRepoManager satisfies repomanager.RepositoryManager with the fakes
// above; unset repositories return nil.
type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	e  *fakeEntriesRepo
	ev *fakeVersionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository { return m.u }

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }

func (m *fakeRepoManager) Entries(dbx.DBTX) entriesrepo.Repository { return m.e }

func (m *fakeRepoManager) EntryVersions(dbx.DBTX) entryversionsrepo.Repository { return m.ev }

func (m *fakeRepoManager) Goals(dbx.DBTX) goalsrepo.Repository { return nil }

func (m *fakeRepoManager) Attachments(dbx.DBTX) attachmentsrepo.Repository { return nil }
