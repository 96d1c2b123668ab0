// Package cli implements the calckeeper command-line client on top of cobra.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/client/client"
	"github.com/dmitrijs2005/calckeeper/internal/client/config"
	"github.com/dmitrijs2005/calckeeper/internal/netx"
)

// App carries what every command needs: configuration, the API client,
// the persisted session and the terminal streams.
type App struct {
	config *config.Config
	store  *client.SessionStore
	newAPI func(baseURL string, timeout time.Duration) client.API

	// download fetches a presigned export URL.
	download func(ctx context.Context, url string) ([]byte, error)

	api     client.API
	session *client.Session

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		store:  client.NewSessionStore(c.SessionFile),
		newAPI: func(baseURL string, timeout time.Duration) client.API {
			return client.NewHTTPClient(baseURL, timeout)
		},
		download: func(ctx context.Context, url string) ([]byte, error) {
			return netx.DownloadPresignedURL(ctx, &http.Client{Timeout: c.RequestTimeout}, url)
		},
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Execute runs the command tree over args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetIn(a.reader)
	return root.ExecuteContext(ctx)
}

// connect builds the API client once flags are parsed and restores the saved
// session for the configured server. A session recorded for another server
// is ignored.
func (a *App) connect() error {
	a.api = a.newAPI(a.config.ServerURL, a.config.RequestTimeout)
	a.session = nil

	sess, err := a.store.Load()
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return nil
	case err != nil:
		return err
	}
	if sess.ServerURL != "" && sess.ServerURL != a.config.ServerURL {
		return nil
	}

	a.session = sess
	a.api.SetTokens(sess.AccessToken, sess.RefreshToken)
	a.api.OnRefresh(a.persistTokens)
	return nil
}

func (a *App) persistTokens(t *client.Tokens) {
	if a.session == nil {
		a.session = &client.Session{ServerURL: a.config.ServerURL}
	}
	a.session.Apply(t)
	if err := a.store.Save(a.session); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save session: %v\n", err)
	}
}

func (a *App) requireSession() error {
	if a.session == nil {
		return client.ErrNotLoggedIn
	}
	return nil
}

// Describe turns an error from a command into the line printed for the user.
func Describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return "not logged in: run 'calckeeper login' first"
	case errors.Is(err, client.ErrUnauthorized):
		return "session expired or revoked: run 'calckeeper login' again"
	case client.IsUnavailable(err):
		return err.Error()
	case errors.As(err, &apiErr):
		return "error: " + apiErr.Error()
	default:
		return "error: " + err.Error()
	}
}
