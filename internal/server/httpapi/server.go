// Package httpapi is the REST surface: routing, request binding, the auth
// dependency as middleware and the mapping of service errors to statuses.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/services"
	"github.com/dmitrijs2005/calckeeper/internal/server/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// shutdownTimeout bounds how long in-flight requests may take after the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

type IdentityResolver interface {
	Resolve(ctx context.Context, header string) (*models.User, *auth.Claims, error)
}

type UserAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	Profile(ctx context.Context, id auth.Identity) (*models.User, error)
	GetUser(ctx context.Context, id auth.Identity, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, userID string, in services.ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, userID string, in services.PasswordChange) (*models.User, error)
	Deactivate(ctx context.Context, id auth.Identity, userID string) (*models.User, error)
	Delete(ctx context.Context, id auth.Identity, userID string) error
}

type CalculationAPI interface {
	Browse(ctx context.Context, id auth.Identity, q services.BrowseQuery) ([]*models.Calculation, error)
	Read(ctx context.Context, id auth.Identity, calcID string) (*models.Calculation, error)
	Add(ctx context.Context, id auth.Identity, in services.CalculationInput) (*models.Calculation, error)
	Edit(ctx context.Context, id auth.Identity, calcID string, in services.CalculationUpdate) (*models.Calculation, error)
	Delete(ctx context.Context, id auth.Identity, calcID string) error
	Summary(ctx context.Context, id auth.Identity) (*services.Summary, error)
	Clear(ctx context.Context, id auth.Identity) (int64, error)
}

type Exporter interface {
	Export(ctx context.Context, id auth.Identity) (*services.Export, error)
}

type Server struct {
	address  string
	logger   logging.Logger
	resolver IdentityResolver
	users    UserAPI
	calcs    CalculationAPI
	exporter Exporter
	engine   *gin.Engine
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Configure(v)
	}
}

func NewServer(address string, l logging.Logger, resolver IdentityResolver, users UserAPI,
	calcs CalculationAPI, exporter Exporter) *Server {
	s := &Server{
		address:  address,
		logger:   l.With("module", "http_server"),
		resolver: resolver,
		users:    users,
		calcs:    calcs,
		exporter: exporter,
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
