package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// GoalService implements direct CRUD on goals. Goals carry only discrete
// fields, so there is no snapshot history to maintain.
type GoalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewGoalService(db *sql.DB, m repomanager.RepositoryManager) *GoalService {
	return &GoalService{db: db, repomanager: m}
}

// GoalInput is the caller-provided state for creates and updates.
type GoalInput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (s *GoalService) Create(ctx context.Context, userID uuid.UUID, in GoalInput) (*models.Goal, error) {
	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrValidation)
	}
	now := time.Now().UTC()
	goal := &models.Goal{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    in.Category,
		Description: in.Description,
		Active:      in.Active,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repomanager.Goals(s.db).Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("error creating goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Goal, error) {
	return s.repomanager.Goals(s.db).GetByID(ctx, id, userID)
}

func (s *GoalService) List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Goal, error) {
	return s.repomanager.Goals(s.db).List(ctx, userID, activeOnly)
}

func (s *GoalService) Update(ctx context.Context, id, userID uuid.UUID, expectedVersion int64, in GoalInput) (*models.Goal, error) {
	repo := s.repomanager.Goals(s.db)
	goal, err := repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if goal.Version != expectedVersion {
		return nil, common.ErrVersionConflict
	}

	goal.Category = in.Category
	goal.Description = in.Description
	goal.Active = in.Active
	goal.UpdatedAt = time.Now().UTC()
	goal.Version = expectedVersion + 1
	if err := repo.Update(ctx, goal, expectedVersion); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("error updating goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repomanager.Goals(s.db).Delete(ctx, id, userID)
}
