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

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/gate"
	"github.com/trezcool/shule/core/principal"
	"github.com/trezcool/shule/core/roster"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		PrincipalSvc   principal.ServiceInterface
		AcademicSvc    academic.ServiceInterface
		Resolver       roster.Resolver
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

// pageTable classifies browser page entry points; sits in front of the SPA.
func pageTable() *gate.Table {
	return gate.NewTable().
		Public(gate.SignInPath).
		Onboarding(gate.OnboardingPath).
		StudentOnly(gate.StudentHomePath).
		FacultyOnly(gate.FacultyHomePath)
}

// apiTable classifies the /v1 API; anything unlisted needs a complete,
// role-checked profile.
func apiTable() *gate.Table {
	return gate.NewTable().
		Public("/v1/auth/login", "/v1/health").
		Onboarding("/v1/auth/token-refresh", "/v1/portal/onboarding", "/v1/portal/profile").
		StudentOnly("/v1/dashboard/student").
		FacultyOnly("/v1/dashboard/faculty")
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.HideBanner = true
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	pageGate := gate.New(pageTable(), s.deps.PrincipalSvc, s.deps.Resolver, s.deps.Logger)
	registerPages(s.app.Group("", gateMiddleware(conf, pageGate, false)))

	apiGate := gate.New(apiTable(), s.deps.PrincipalSvc, s.deps.Resolver, s.deps.Logger)
	v1 := s.app.Group("/v1", gateMiddleware(conf, apiGate, true))
	v1.GET("/health", health)
	registerAuthAPI(v1, conf, s.deps.PrincipalSvc)
	registerPortalAPI(v1, conf, s.deps.PrincipalSvc, s.deps.AcademicSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown lets request handling trigger a graceful shutdown when an
// unrecoverable error is caught.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
