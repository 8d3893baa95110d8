package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/config"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/shopkeeper/internal/client/services"
	"github.com/dmitrijs2005/shopkeeper/internal/cryptox"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
)

type sessionService interface {
	RestoreSession(ctx context.Context) services.Snapshot
	Login(ctx context.Context, username, password string) (*models.User, error)
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Snapshot() services.Snapshot
	Subscribe(fn func(services.Snapshot)) func()
}

type productService interface {
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      *client.HTTPClient
	session  sessionService
	products productService
	browser  *services.ProductBrowser
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp builds an App reading from stdin, printing to stdout and logging
// to stderr.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdin, os.Stdout, os.Stderr)
}

func newApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger, err := logging.New(logOut, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	secret, err := cryptox.LoadOrCreateSecret(c.KeyFile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api, err := client.NewHTTPClient(c.ServerURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	session := services.NewSessionManager(api, credentials.NewStore(db, secret), logger)
	products := services.NewProductService(api, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		api:      api,
		session:  session,
		products: products,
		browser:  services.NewProductBrowser(products, c.PageSize),
		reader:   bufio.NewReader(in),
		out:      out,
	}, nil
}

// Run restores the previous session and serves the REPL until exit.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to shopkeeper CLI (type 'help' for commands)")

	unsubscribe := a.session.Subscribe(a.onSessionChange)
	defer unsubscribe()

	fmt.Fprintln(a.out, "Loading...")
	a.session.RestoreSession(ctx)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}

// Close releases the transport and the local database.
func (a *App) Close() error {
	var errs []error
	if a.api != nil {
		errs = append(errs, a.api.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) onSessionChange(s services.Snapshot) {
	switch s.State {
	case services.StateAuthenticated:
		fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Username)
	case services.StateAnonymous:
		fmt.Fprintln(a.out, "Not logged in. Use 'login' or 'register'.")
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Authenticated()
}

func (a *App) getStatus() string {
	s := a.session.Snapshot()
	switch {
	case s.Initializing():
		return "(loading)"
	case s.Authenticated():
		return fmt.Sprintf("(%s)", s.User.Username)
	}
	return ""
}
