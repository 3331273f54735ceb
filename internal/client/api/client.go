// Package api is the HTTP client for the journal server. It keeps the token
// pair from login and transparently refreshes the access token once when a
// request comes back unauthorized.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	syncapi "github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

// Client is the server API surface the client services depend on.
type Client interface {
	Register(ctx context.Context, email, name, password string) error
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	SetTokens(pair TokenPair)
	Tokens() TokenPair
	Ping(ctx context.Context) error

	GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListEntries(ctx context.Context, status string) ([]*models.Entry, error)
	EntryVersions(ctx context.Context, id uuid.UUID) ([]*models.EntryVersion, error)

	ListGoals(ctx context.Context, activeOnly bool) ([]*models.Goal, error)

	Sync(ctx context.Context, req syncapi.SyncRequest) (*syncapi.SyncResponse, error)
	Resolve(ctx context.Context, req syncapi.ResolveRequest) (*models.Entry, error)

	Chat(ctx context.Context, entryID uuid.UUID, conversationID *uuid.UUID, message string) (*models.Entry, error)
	RequestRefine(ctx context.Context, entryID uuid.UUID) (*models.Entry, error)

	CreateAttachment(ctx context.Context, entryID uuid.UUID, fileName string) (*UploadTask, error)
	ConfirmAttachment(ctx context.Context, id uuid.UUID) error
	AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	ListAttachments(ctx context.Context, entryID uuid.UUID) ([]*models.Attachment, error)
}

// TokenPair mirrors the login and refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UploadTask mirrors the attachment creation response: the stored row plus a
// presigned URL to PUT the file to.
type UploadTask struct {
	Attachment *models.Attachment `json:"attachment"`
	UploadURL  string             `json:"upload_url"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenPair
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
}

func (c *HTTPClient) SetTokens(pair TokenPair) { c.tokens = pair }

func (c *HTTPClient) Tokens() TokenPair { return c.tokens }

type errorResponse struct {
	Error string `json:"error"`
}

// mapStatus converts an error response into the matching sentinel so callers
// can use errors.Is the same way they do against local repositories.
func mapStatus(status int, msg string) error {
	switch status {
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		if msg == "already exists" {
			return common.ErrAlreadyExists
		}
		return common.ErrVersionConflict
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrValidation, msg)
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	default:
		return fmt.Errorf("server returned %d: %s", status, msg)
	}
}

// do issues one JSON request. On 401 it refreshes the token pair and retries
// the request a single time.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	status, err := c.doOnce(ctx, method, path, body, out)
	if err == nil || status != http.StatusUnauthorized || c.tokens.RefreshToken == "" {
		return err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		return err
	}
	_, err = c.doOnce(ctx, method, path, body, out)
	return err
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return resp.StatusCode, mapStatus(resp.StatusCode, er.Error)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	var pair TokenPair
	_, err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refresh_token": c.tokens.RefreshToken}, &pair)
	if err != nil {
		return err
	}
	c.tokens = pair
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, email, name, password string) error {
	body := map[string]string{"email": email, "name": name, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &pair); err != nil {
		return nil, err
	}
	c.tokens = pair
	return &pair, nil
}

// Ping reports whether the server is reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+id.String(), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) ListEntries(ctx context.Context, status string) ([]*models.Entry, error) {
	path := "/api/entries/"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var list []*models.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) EntryVersions(ctx context.Context, id uuid.UUID) ([]*models.EntryVersion, error) {
	var list []*models.EntryVersion
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+id.String()+"/versions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListGoals(ctx context.Context, activeOnly bool) ([]*models.Goal, error) {
	path := "/api/goals/"
	if activeOnly {
		path += "?active=true"
	}
	var list []*models.Goal
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) Sync(ctx context.Context, req syncapi.SyncRequest) (*syncapi.SyncResponse, error) {
	var resp syncapi.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Resolve(ctx context.Context, req syncapi.ResolveRequest) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodPost, "/api/sync/resolve", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) Chat(ctx context.Context, entryID uuid.UUID, conversationID *uuid.UUID, message string) (*models.Entry, error) {
	body := map[string]any{"message": message}
	if conversationID != nil {
		body["conversation_id"] = conversationID.String()
	}
	var entry models.Entry
	if err := c.do(ctx, http.MethodPost, "/api/entries/"+entryID.String()+"/chat", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) RequestRefine(ctx context.Context, entryID uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodPost, "/api/entries/"+entryID.String()+"/refine", nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) CreateAttachment(ctx context.Context, entryID uuid.UUID, fileName string) (*UploadTask, error) {
	body := map[string]string{"file_name": fileName}
	var task UploadTask
	if err := c.do(ctx, http.MethodPost, "/api/entries/"+entryID.String()+"/attachments", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ConfirmAttachment(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/attachments/"+id.String()+"/confirm", nil, nil)
}

func (c *HTTPClient) AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/attachments/"+id.String()+"/download", nil, &resp); err != nil {
		return "", err
	}
	return resp["download_url"], nil
}

func (c *HTTPClient) ListAttachments(ctx context.Context, entryID uuid.UUID) ([]*models.Attachment, error) {
	var list []*models.Attachment
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+entryID.String()+"/attachments", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
