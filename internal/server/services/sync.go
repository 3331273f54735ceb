package services

import (
	"context"
	"database/sql"

	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

// SyncService runs each sync batch inside one transaction, so a transport
// failure mid-batch leaves the store untouched and the client can safely
// retry the whole batch.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *SyncService {
	return &SyncService{db: db, repomanager: m, logger: logger}
}

func (s *SyncService) coordinator(tx dbx.DBTX) *sync.Coordinator {
	return sync.NewCoordinator(
		s.repomanager.Entries(tx),
		s.repomanager.EntryVersions(tx),
		s.repomanager.Goals(tx),
		s.logger,
	)
}

// Sync reconciles the client's pending changes and returns the outcome plus
// the pull side of the sync.
func (s *SyncService) Sync(ctx context.Context, userID uuid.UUID, req sync.SyncRequest) (*sync.SyncResponse, error) {
	var resp *sync.SyncResponse
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		resp, err = s.coordinator(tx).Sync(ctx, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Resolve settles a conflicted entry with an explicit user decision.
func (s *SyncService) Resolve(ctx context.Context, userID uuid.UUID, req sync.ResolveRequest) (*models.Entry, error) {
	var resolved *models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		resolved, err = s.coordinator(tx).Resolve(ctx, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
