// Package cli implements the interactive ChatPulse client: a small REPL over
// the authentication service and the session store.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/chatpulse/chatpulse-cli/internal/client/api"
	"github.com/chatpulse/chatpulse-cli/internal/client/config"
	"github.com/chatpulse/chatpulse-cli/internal/client/localdb"
	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/client/repositories/credentials"
	"github.com/chatpulse/chatpulse-cli/internal/client/services"
	"github.com/chatpulse/chatpulse-cli/internal/client/session"
	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

// sessionView is the slice of the session store the REPL reads. Writes go
// through the auth service.
type sessionView interface {
	Bootstrap(ctx context.Context) error
	Current() *models.Session
	IsAuthenticated() bool
	RefreshProfile(ctx context.Context) (*models.UserProfile, error)
}

type App struct {
	config      *config.Config
	authService services.AuthService
	session     sessionView
	log         logging.Logger
	reader      *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerURL, c.RequestTimeout, log)
	store := session.NewStore(apiClient, credentials.NewSQLiteRepository(db), log)
	as := services.NewAuthService(apiClient, store, log)

	return &App{
		config:      c,
		authService: as,
		session:     store,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

// Run bootstraps the session and enters the REPL. Bootstrap is the single
// blocking gate: no command runs before it resolves one way or the other.
func (a *App) Run(ctx context.Context) error {
	defer a.authService.Close(ctx)

	if err := a.session.Bootstrap(ctx); err != nil {
		return err
	}
	a.Root(ctx)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}
