package services

import (
	"context"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/client/storage"
	"github.com/epicrunze/journal/internal/common"
	smodels "github.com/epicrunze/journal/internal/server/models"
	syncapi "github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

// JournalService edits the local cache and records every mutation in the
// pending queue. The cached version number is never bumped locally: it tracks
// what the server acknowledged, and each queued update captures it as the
// base version at the moment of the edit.
type JournalService interface {
	CreateEntry(ctx context.Context, date, content string) (*models.Entry, error)
	UpdateEntryContent(ctx context.Context, id uuid.UUID, content string) (*models.Entry, error)
	ArchiveEntry(ctx context.Context, id uuid.UUID) error
	GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListEntries(ctx context.Context, includeArchived bool) ([]models.Entry, error)

	CreateGoal(ctx context.Context, category, description string) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id uuid.UUID, description string, active bool) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id uuid.UUID) error
	ListGoals(ctx context.Context, activeOnly bool) ([]models.Goal, error)

	PendingCount(ctx context.Context) (int, error)
}

type journalService struct {
	repos *storage.Repositories
	now   func() time.Time
}

func NewJournalService(repos *storage.Repositories) JournalService {
	return &journalService{repos: repos, now: time.Now}
}

func entryChangeData(e *models.Entry) syncapi.EntryChangeData {
	return syncapi.EntryChangeData{
		Date:             e.Date,
		RefinedOutput:    e.RefinedOutput,
		Conversations:    e.Conversations,
		Status:           e.Status,
		RelevanceScore:   &e.RelevanceScore,
		LastInteractedAt: e.LastInteractedAt,
		InteractionCount: &e.InteractionCount,
		PendingRefine:    &e.PendingRefine,
	}
}

func (s *journalService) CreateEntry(ctx context.Context, date, content string) (*models.Entry, error) {
	now := s.now().UTC()
	e := &models.Entry{
		ID:               uuid.New(),
		Date:             date,
		Conversations:    []smodels.Conversation{},
		RefinedOutput:    content,
		LastInteractedAt: now,
		Status:           smodels.EntryStatusActive,
		RefineStatus:     smodels.RefineStatusIdle,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.Entries.Upsert(ctx, e); err != nil {
		return nil, err
	}

	change, err := models.NewEntryCreateChange(e.ID, entryChangeData(e))
	if err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Append(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to queue create: %w", err)
	}
	return e, nil
}

func (s *journalService) UpdateEntryContent(ctx context.Context, id uuid.UUID, content string) (*models.Entry, error) {
	e, err := s.repos.Entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// The base version is captured here, before the edit, so the server can
	// merge against the snapshot this edit actually started from.
	base := e.Version

	e.RefinedOutput = content
	e.UpdatedAt = s.now().UTC()
	if err := s.repos.Entries.Upsert(ctx, e); err != nil {
		return nil, err
	}

	change, err := models.NewEntryUpdateChange(e.ID, entryChangeData(e), base)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Append(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to queue update: %w", err)
	}
	return e, nil
}

func (s *journalService) ArchiveEntry(ctx context.Context, id uuid.UUID) error {
	e, err := s.repos.Entries.GetByID(ctx, id)
	if err != nil {
		return err
	}
	e.Status = smodels.EntryStatusArchived
	e.UpdatedAt = s.now().UTC()
	if err := s.repos.Entries.Upsert(ctx, e); err != nil {
		return err
	}
	return s.repos.Pending.Append(ctx, models.NewEntryDeleteChange(id))
}

func (s *journalService) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	return s.repos.Entries.GetByID(ctx, id)
}

func (s *journalService) ListEntries(ctx context.Context, includeArchived bool) ([]models.Entry, error) {
	return s.repos.Entries.List(ctx, includeArchived)
}

func (s *journalService) CreateGoal(ctx context.Context, category, description string) (*models.Goal, error) {
	if category == "" || description == "" {
		return nil, fmt.Errorf("%w: category and description are required", common.ErrValidation)
	}
	now := s.now().UTC()
	g := &models.Goal{
		ID:          uuid.New(),
		Category:    category,
		Description: description,
		Active:      true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Goals.Upsert(ctx, g); err != nil {
		return nil, err
	}
	change, err := models.NewGoalChange(syncapi.ChangeCreate, g.ID, &syncapi.GoalChangeData{
		Category: g.Category, Description: g.Description, Active: g.Active,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Append(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to queue goal create: %w", err)
	}
	return g, nil
}

func (s *journalService) UpdateGoal(ctx context.Context, id uuid.UUID, description string, active bool) (*models.Goal, error) {
	g, err := s.repos.Goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Description = description
	g.Active = active
	g.UpdatedAt = s.now().UTC()
	if err := s.repos.Goals.Upsert(ctx, g); err != nil {
		return nil, err
	}
	change, err := models.NewGoalChange(syncapi.ChangeUpdate, g.ID, &syncapi.GoalChangeData{
		Category: g.Category, Description: g.Description, Active: g.Active,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Append(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to queue goal update: %w", err)
	}
	return g, nil
}

func (s *journalService) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Goals.Delete(ctx, id); err != nil {
		return err
	}
	change, err := models.NewGoalChange(syncapi.ChangeDelete, id, nil)
	if err != nil {
		return err
	}
	return s.repos.Pending.Append(ctx, change)
}

func (s *journalService) ListGoals(ctx context.Context, activeOnly bool) ([]models.Goal, error) {
	return s.repos.Goals.List(ctx, activeOnly)
}

func (s *journalService) PendingCount(ctx context.Context) (int, error) {
	return s.repos.Pending.Count(ctx)
}
