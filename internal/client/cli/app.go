package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/epicrunze/journal/internal/client/api"
	"github.com/epicrunze/journal/internal/client/config"
	"github.com/epicrunze/journal/internal/client/services"
	"github.com/epicrunze/journal/internal/client/storage"
	"github.com/epicrunze/journal/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	repos       *storage.Repositories
	authService services.AuthService
	journal     services.JournalService
	syncService services.SyncService
	remote      services.RemoteService
	email       string
	Mode        Mode
	reader      *bufio.Reader
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	repos, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerEndpointAddr)

	return &App{
		config:      c,
		repos:       repos,
		authService: services.NewAuthService(apiClient, repos),
		journal:     services.NewJournalService(repos),
		syncService: services.NewSyncService(apiClient, repos, logger),
		remote:      services.NewRemoteService(apiClient, repos),
		Mode:        ModeOffline,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.repos.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

// StartOnlineStatusWatcher probes the server on an interval and flips the
// mode when connectivity changes.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
