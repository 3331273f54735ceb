// Package services contains the application services for the journal client:
// session management, local-first editing of entries and goals, and the sync
// engine that reconciles the offline queue with the server.
package services

import (
	"context"
	"fmt"

	"github.com/epicrunze/journal/internal/client/api"
	"github.com/epicrunze/journal/internal/client/storage"
)

// Metadata keys for the locally persisted session.
const (
	metaAccessToken  = "access_token"
	metaRefreshToken = "refresh_token"
	metaEmail        = "email"
	metaLastSyncedAt = "last_synced_at"
)

// AuthService manages the login session. Tokens are persisted in local
// metadata so a restarted client keeps its session without going online.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) error
	Login(ctx context.Context, email, password string) error
	// RestoreSession loads a previously saved token pair into the API
	// client. Returns false when no session is stored.
	RestoreSession(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
	Email(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client api.Client
	repos  *storage.Repositories
}

func NewAuthService(client api.Client, repos *storage.Repositories) AuthService {
	return &authService{client: client, repos: repos}
}

func (a *authService) Register(ctx context.Context, email, name, password string) error {
	return a.client.Register(ctx, email, name, password)
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	pair, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.repos.Metadata.Set(ctx, metaAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	if err := a.repos.Metadata.Set(ctx, metaRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return err
	}
	return a.repos.Metadata.Set(ctx, metaEmail, []byte(email))
}

func (a *authService) RestoreSession(ctx context.Context) (bool, error) {
	access, err := a.repos.Metadata.Get(ctx, metaAccessToken)
	if err != nil {
		return false, err
	}
	refresh, err := a.repos.Metadata.Get(ctx, metaRefreshToken)
	if err != nil {
		return false, err
	}
	if access == nil || refresh == nil {
		return false, nil
	}
	a.client.SetTokens(api.TokenPair{AccessToken: string(access), RefreshToken: string(refresh)})
	return true, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.SetTokens(api.TokenPair{})
	for _, key := range []string{metaAccessToken, metaRefreshToken, metaEmail} {
		if err := a.repos.Metadata.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (a *authService) Email(ctx context.Context) (string, error) {
	v, err := a.repos.Metadata.Get(ctx, metaEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
