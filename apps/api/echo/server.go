package echoapi

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/submission"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	aisvc "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// optional
		Metrics  RequestObserver
		Gatherer prometheus.Gatherer
		Cache    core.Cache

		AI            *aisvc.Client
		UserSvc       user.ServiceInterface
		CourseSvc     *course.Service
		ExerciseSvc   *exercise.Service
		SubmissionSvc *submission.Service
		EnrollmentSvc *enrollment.Service
		ChatSvc       *chat.Service
		ProfileSvc    *profile.Service
		ActivitySvc   *activitylog.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *Auth
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     NewAuth(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}

	s.app.GET("/", s.home)
	s.app.GET("/health", health)
	if s.deps.Gatherer != nil {
		s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, s.auth, s.deps.UserSvc, s.deps.Validate)
	if s.deps.CourseSvc != nil {
		registerCourseAPI(v1, s.auth, s.deps.CourseSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.ExerciseSvc != nil {
		registerExerciseAPI(v1, s.auth, s.deps.ExerciseSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.SubmissionSvc != nil {
		registerSubmissionAPI(v1, s.auth, s.deps.SubmissionSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.EnrollmentSvc != nil {
		registerEnrollmentAPI(v1, s.auth, s.deps.EnrollmentSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.ChatSvc != nil {
		registerChatSessionAPI(v1, s.auth, s.deps.ChatSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.ProfileSvc != nil {
		registerProfileAPI(v1, s.auth, s.deps.ProfileSvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.ActivitySvc != nil {
		registerActivityLogAPI(v1, s.auth, s.deps.ActivitySvc, s.deps.UserSvc, s.deps.Validate)
	}
	if s.deps.AI != nil {
		registerAIAPI(v1, s.auth, s.deps.AI, s.deps.Cache, s.deps.Logger, s.deps.Validate)
	}
}

// Start blocks until the server stops; failures other than a shutdown are reported on Errors.
func (s *Server) Start() {
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

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// Auth exposes the token issuer, mostly for tests.
func (s *Server) Auth() *Auth {
	return s.auth
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "OK"})
}
