package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
	metricsvc "github.com/shuleapp/shule/services/metrics"
)

type (
	Deps struct {
		Conf      *core.Config
		Logger    core.Logger
		Validator *core.Validator
		Auth      *auth.Authenticator
		UserSvc   *user.Service
		ClassSvc  *class.Service
		Metrics   *metricsvc.Metrics  // optional
		Gatherer  prometheus.Gatherer // optional, served under /metrics
	}

	Server struct {
		deps     Deps
		app      *echo.Echo
		cookie   session.CookieConfig
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps Deps) *Server {
	s := &Server{
		deps: deps,
		app:  echo.New(),
		cookie: session.CookieConfig{
			Name:   deps.Conf.Session.CookieName,
			TTL:    deps.Conf.Session.TTL,
			Secure: deps.Conf.Session.SecureCookie,
		},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(observeRequests(s.deps.Metrics))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	if s.deps.Gatherer != nil {
		s.app.GET("/metrics", echo.WrapHandler(metricsvc.Handler(s.deps.Gatherer)))
	}

	api := s.app.Group("/api")
	registerAuthAPI(api, &authApi{
		authn:    s.deps.Auth,
		users:    s.deps.UserSvc,
		validate: s.deps.Validator,
		cookie:   s.cookie,
	})

	dash := &dashboardApi{users: s.deps.UserSvc, classes: s.deps.ClassSvc}
	admin := api.Group("/admin", requireRole(s.deps.Auth, s.cookie, user.RoleAdmin))
	admin.GET("/stats", dash.stats)
	registerClassAPI(admin, s.deps.ClassSvc)

	registerDashboards(s.app, dash, func(role user.Role) echo.MiddlewareFunc {
		return gateDashboard(s.deps.Auth, s.cookie, role)
	})
}

// Start listens on the configured address. Errors other than a clean shutdown are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
