// Package echoweb serves the classroom dashboard: server-rendered pages for students and teachers,
// backed by the classroom REST API.
package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/comment"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
	webfs "github.com/trezcool/classboard/fs"
	"github.com/trezcool/classboard/services/metrics"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Sessions      session.Store
		UserSvc       *user.Service
		TaskSvc       *task.Service
		SubmissionSvc *submission.Service
		CommentSvc    *comment.Service
		RankingSvc    *ranking.Service
		Metrics       *metrics.Metrics
		Validate      *validator.Validate
		Translator    ut.Translator
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
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	rdr, err := newRenderer(webfs.Templates)
	if err != nil {
		panic(err) // templates are embedded: this is a programming error
	}
	s.app.Renderer = rdr
	s.app.HideBanner = true
	// client headers are not trusted for the client IP
	s.app.IPExtractor = echo.ExtractIPDirect()
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}
	s.app.GET("/healthz", s.healthz)

	web := s.app.Group("", s.sessionMiddleware)
	web.GET("/", s.home)

	loginLimiter := newIPRateLimiter(conf.RateLimit.LoginRPS, conf.RateLimit.LoginBurst)
	web.GET("/login", s.loginForm)
	web.POST("/login", s.login, loginLimiter.middleware)
	web.POST("/logout", s.logout)

	registerStudentPages(web.Group("/student", requireRole(user.RoleStudent)), s)
	registerTeacherPages(web.Group("/teacher", requireRole(user.RoleTeacher)), s)
	registerCommentPartials(web.Group("/submissions", requireRole(user.RoleStudent, user.RoleTeacher)), s)
}

func (s *server) Start() {
	s.deps.Logger.Info("server listening on " + s.deps.Conf.Server.Address)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}

// home sends users to the dashboard of their role.
func (s *server) home(ctx echo.Context) error {
	sess := currentSession(ctx)
	if !sess.IsAuthenticated() {
		return redirect(ctx, "/login")
	}
	if to := user.HomePath(sess.Role); to != "/" {
		return redirect(ctx, to)
	}
	return s.render(ctx, http.StatusOK, "home", "Home", nil)
}
