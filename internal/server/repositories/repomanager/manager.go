// Package repomanager vends repository implementations bound to a DBTX, so
// services can run several repositories inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/server/repositories/attachments"
	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/epicrunze/journal/internal/server/repositories/entryversions"
	"github.com/epicrunze/journal/internal/server/repositories/goals"
	"github.com/epicrunze/journal/internal/server/repositories/refreshtokens"
	"github.com/epicrunze/journal/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
	EntryVersions(db dbx.DBTX) entryversions.Repository
	Goals(db dbx.DBTX) goals.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
