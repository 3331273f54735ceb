package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/llm"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ChatService runs the LLM-assisted journaling flows: conversational chat
// inside an entry and refinement of accumulated conversations into a
// polished entry text. The model output is ordinary text to the rest of the
// system; refined output is diffed and merged during sync like any user edit.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    llm.Provider
	logger      logging.Logger
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, provider llm.Provider, logger logging.Logger) *ChatService {
	return &ChatService{db: db, repomanager: m, provider: provider, logger: logger}
}

// SendMessage appends the user's message to a conversation, asks the model
// for a reply, appends it too, and bumps the entry version. When
// conversationID is nil a new conversation is started.
func (s *ChatService) SendMessage(ctx context.Context, userID, entryID uuid.UUID, conversationID *uuid.UUID, text string) (*models.Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is required", common.ErrValidation)
	}

	entry, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv := s.findOrStartConversation(entry, conversationID, now)
	conv.Messages = append(conv.Messages, models.Message{Role: "user", Content: text, Timestamp: now})

	reply, err := s.provider.Generate(ctx, conversationMessages(conv), llm.ChatSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("error generating chat reply: %w", err)
	}
	conv.Messages = append(conv.Messages, models.Message{Role: "assistant", Content: reply, Timestamp: time.Now().UTC()})

	entry.LastInteractedAt = now
	entry.InteractionCount++
	entry.UpdatedAt = now

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.bump(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("error saving conversation: %w", err)
	}
	return entry, nil
}

// RequestRefine flags the entry for background refinement.
func (s *ChatService) RequestRefine(ctx context.Context, userID, entryID uuid.UUID) (*models.Entry, error) {
	entry, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}
	if len(entry.Conversations) == 0 {
		return nil, fmt.Errorf("%w: entry has no conversations to refine", common.ErrValidation)
	}

	entry.PendingRefine = true
	entry.RefineStatus = models.RefineStatusIdle
	entry.RefineError = ""
	entry.UpdatedAt = time.Now().UTC()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.bump(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("error requesting refine: %w", err)
	}
	return entry, nil
}

// ProcessPendingRefines drains up to limit flagged entries for one user,
// synthesizing each entry's conversations into its refined output. Failures
// are recorded on the entry and do not stop the drain.
func (s *ChatService) ProcessPendingRefines(ctx context.Context, userID uuid.UUID, limit int) (int, error) {
	if limit <= 0 {
		limit = 10
	}
	all, err := s.repomanager.Entries(s.db).List(ctx, userID, entries.ListFilter{PendingRefine: true, Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("error listing pending refines: %w", err)
	}

	processed := 0
	for _, entry := range all {
		if !entry.PendingRefine {
			continue
		}
		if err := s.refineOne(ctx, entry); err != nil {
			s.logger.Error(ctx, "refine failed", "entry_id", entry.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *ChatService) refineOne(ctx context.Context, entry *models.Entry) error {
	refined, genErr := s.provider.Generate(ctx,
		[]llm.Message{{Role: "user", Content: formatConversations(entry.Conversations)}},
		llm.RefineSystemPrompt)

	now := time.Now().UTC()
	entry.PendingRefine = false
	entry.UpdatedAt = now
	if genErr != nil {
		entry.RefineStatus = models.RefineStatusFailed
		entry.RefineError = genErr.Error()
	} else {
		entry.RefinedOutput = refined
		entry.RefineStatus = models.RefineStatusCompleted
		entry.RefineError = ""
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.bump(ctx, tx, entry)
	})
	if err != nil {
		return err
	}
	if genErr != nil {
		return genErr
	}
	return nil
}

func (s *ChatService) bump(ctx context.Context, tx dbx.DBTX, entry *models.Entry) error {
	expected := entry.Version
	entry.Version = expected + 1
	if err := s.repomanager.Entries(tx).Update(ctx, entry, expected); err != nil {
		entry.Version = expected
		if errors.Is(err, common.ErrVersionConflict) {
			return common.ErrVersionConflict
		}
		return err
	}
	return s.repomanager.EntryVersions(tx).Create(ctx, &models.EntryVersion{
		ID:              uuid.New(),
		EntryID:         entry.ID,
		Version:         entry.Version,
		ContentSnapshot: entry.RefinedOutput,
		CreatedAt:       time.Now().UTC(),
	})
}

func (s *ChatService) findOrStartConversation(entry *models.Entry, conversationID *uuid.UUID, now time.Time) *models.Conversation {
	if conversationID != nil {
		for i := range entry.Conversations {
			if entry.Conversations[i].ID == *conversationID {
				return &entry.Conversations[i]
			}
		}
	}
	entry.Conversations = append(entry.Conversations, models.Conversation{
		ID:           uuid.New(),
		StartedAt:    now,
		PromptSource: "user",
	})
	return &entry.Conversations[len(entry.Conversations)-1]
}

func conversationMessages(conv *models.Conversation) []llm.Message {
	out := make([]llm.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// formatConversations flattens an entry's conversations into the text block
// handed to the refine prompt.
func formatConversations(convs []models.Conversation) string {
	var b strings.Builder
	for i, conv := range convs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Conversation started %s:\n", conv.StartedAt.Format(time.RFC3339))
		for _, m := range conv.Messages {
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}
