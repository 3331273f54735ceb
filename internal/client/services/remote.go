package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/epicrunze/journal/internal/client/api"
	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/client/storage"
	"github.com/epicrunze/journal/internal/netx"
	smodels "github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

// RemoteService covers the online-only operations: chatting with the
// assistant, requesting a refine, and attachments. Results are folded into
// the local cache so they survive going offline.
type RemoteService interface {
	Chat(ctx context.Context, entryID uuid.UUID, message string) (*models.Entry, error)
	RequestRefine(ctx context.Context, entryID uuid.UUID) (*models.Entry, error)
	UploadAttachment(ctx context.Context, entryID uuid.UUID, filePath string) (*smodels.Attachment, error)
	AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	ListAttachments(ctx context.Context, entryID uuid.UUID) ([]*smodels.Attachment, error)
}

type remoteService struct {
	client api.Client
	repos  *storage.Repositories
	now    func() time.Time
}

func NewRemoteService(client api.Client, repos *storage.Repositories) RemoteService {
	return &remoteService{client: client, repos: repos, now: time.Now}
}

// cacheEntry overwrites the local row with the server's state.
func (s *remoteService) cacheEntry(ctx context.Context, e *smodels.Entry) (*models.Entry, error) {
	synced := s.now().UTC()
	local := &models.Entry{
		ID:               e.ID,
		Date:             e.Date,
		Conversations:    e.Conversations,
		RefinedOutput:    e.RefinedOutput,
		RelevanceScore:   e.RelevanceScore,
		LastInteractedAt: e.LastInteractedAt,
		InteractionCount: e.InteractionCount,
		Status:           e.Status,
		PendingRefine:    e.PendingRefine,
		RefineStatus:     e.RefineStatus,
		Version:          e.Version,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		SyncedAt:         &synced,
	}
	if err := s.repos.Entries.Upsert(ctx, local); err != nil {
		return nil, err
	}
	return local, nil
}

func (s *remoteService) Chat(ctx context.Context, entryID uuid.UUID, message string) (*models.Entry, error) {
	// Continue the latest conversation if the entry has one.
	var conversationID *uuid.UUID
	if local, err := s.repos.Entries.GetByID(ctx, entryID); err == nil && len(local.Conversations) > 0 {
		id := local.Conversations[len(local.Conversations)-1].ID
		conversationID = &id
	}

	entry, err := s.client.Chat(ctx, entryID, conversationID, message)
	if err != nil {
		return nil, err
	}
	return s.cacheEntry(ctx, entry)
}

func (s *remoteService) RequestRefine(ctx context.Context, entryID uuid.UUID) (*models.Entry, error) {
	entry, err := s.client.RequestRefine(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return s.cacheEntry(ctx, entry)
}

func (s *remoteService) UploadAttachment(ctx context.Context, entryID uuid.UUID, filePath string) (*smodels.Attachment, error) {
	body, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	task, err := s.client.CreateAttachment(ctx, entryID, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}

	if err := netx.UploadToPresignedURL(ctx, task.UploadURL, body); err != nil {
		return nil, err
	}

	if err := s.client.ConfirmAttachment(ctx, task.Attachment.ID); err != nil {
		return nil, err
	}
	return task.Attachment, nil
}

func (s *remoteService) AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	return s.client.AttachmentDownloadURL(ctx, id)
}

func (s *remoteService) ListAttachments(ctx context.Context, entryID uuid.UUID) ([]*smodels.Attachment, error) {
	return s.client.ListAttachments(ctx, entryID)
}
