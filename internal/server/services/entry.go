package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// EntryService implements direct (non-sync) CRUD on journal entries. Every
// accepted mutation bumps the version and writes a content snapshot, so a
// device that edited an older version can still find its merge ancestor.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager) *EntryService {
	return &EntryService{db: db, repomanager: m}
}

// EntryInput is the caller-provided state for creates and updates.
type EntryInput struct {
	Date             string                `json:"date"`
	RefinedOutput    string                `json:"refined_output"`
	Conversations    []models.Conversation `json:"conversations,omitempty"`
	Status           string                `json:"status,omitempty"`
	RelevanceScore   float64               `json:"relevance_score,omitempty"`
	InteractionCount int                   `json:"interaction_count,omitempty"`
	PendingRefine    bool                  `json:"pending_refine,omitempty"`
}

func (s *EntryService) Create(ctx context.Context, userID uuid.UUID, in EntryInput) (*models.Entry, error) {
	if in.Date == "" {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}
	now := time.Now().UTC()
	entry := &models.Entry{
		ID:               uuid.New(),
		UserID:           userID,
		Date:             in.Date,
		Conversations:    in.Conversations,
		RefinedOutput:    in.RefinedOutput,
		RelevanceScore:   in.RelevanceScore,
		LastInteractedAt: now,
		InteractionCount: in.InteractionCount,
		Status:           models.EntryStatusActive,
		RefineStatus:     models.RefineStatusIdle,
		PendingRefine:    in.PendingRefine,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Status != "" {
		entry.Status = in.Status
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Entries(tx).Create(ctx, entry); err != nil {
			return err
		}
		return s.snapshot(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}
	return entry, nil
}

func (s *EntryService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).GetByID(ctx, id, userID)
}

func (s *EntryService) List(ctx context.Context, userID uuid.UUID, filter entries.ListFilter) ([]*models.Entry, error) {
	return s.repomanager.Entries(s.db).List(ctx, userID, filter)
}

// Update applies in to the entry only if it is still at expectedVersion;
// a concurrent writer yields common.ErrVersionConflict, which the caller
// surfaces so the client re-enters through the sync path.
func (s *EntryService) Update(ctx context.Context, id, userID uuid.UUID, expectedVersion int64, in EntryInput) (*models.Entry, error) {
	var updated *models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		entry, err := repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}
		if entry.Version != expectedVersion {
			return common.ErrVersionConflict
		}

		now := time.Now().UTC()
		if in.Date != "" {
			entry.Date = in.Date
		}
		if in.Conversations != nil {
			entry.Conversations = in.Conversations
		}
		if in.Status != "" {
			entry.Status = in.Status
		}
		entry.RefinedOutput = in.RefinedOutput
		entry.RelevanceScore = in.RelevanceScore
		entry.LastInteractedAt = now
		entry.InteractionCount = in.InteractionCount
		if in.PendingRefine {
			entry.PendingRefine = true
			entry.RefineStatus = models.RefineStatusIdle
		}
		entry.UpdatedAt = now

		if err := s.bump(ctx, tx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating entry: %w", err)
	}
	return updated, nil
}

// Archive marks the entry archived. Rows are never removed; a device holding
// a stale reference must still be able to sync against them.
func (s *EntryService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Entry, error) {
	var archived *models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		entry, err := repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}
		entry.Status = models.EntryStatusArchived
		entry.UpdatedAt = time.Now().UTC()
		if err := s.bump(ctx, tx, entry); err != nil {
			return err
		}
		archived = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error archiving entry: %w", err)
	}
	return archived, nil
}

// Versions lists the content snapshot history of an entry.
func (s *EntryService) Versions(ctx context.Context, id, userID uuid.UUID) ([]*models.EntryVersion, error) {
	// ownership check before exposing history
	if _, err := s.repomanager.Entries(s.db).GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repomanager.EntryVersions(s.db).ListByEntry(ctx, id)
}

func (s *EntryService) bump(ctx context.Context, tx dbx.DBTX, entry *models.Entry) error {
	expected := entry.Version
	entry.Version = expected + 1
	if err := s.repomanager.Entries(tx).Update(ctx, entry, expected); err != nil {
		entry.Version = expected
		return err
	}
	return s.snapshot(ctx, tx, entry)
}

func (s *EntryService) snapshot(ctx context.Context, tx dbx.DBTX, entry *models.Entry) error {
	return s.repomanager.EntryVersions(tx).Create(ctx, &models.EntryVersion{
		ID:              uuid.New(),
		EntryID:         entry.ID,
		Version:         entry.Version,
		ContentSnapshot: entry.RefinedOutput,
		CreatedAt:       time.Now().UTC(),
	})
}
