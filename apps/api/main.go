package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/AmelJaballah/SmartLearn-mern-project/apps/api/echo"
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
	emailsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/email"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
	metricsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/metrics"
	tracesvc "github.com/AmelJaballah/SmartLearn-mern-project/services/tracing"
	"github.com/AmelJaballah/SmartLearn-mern-project/storage/cache"
	"github.com/AmelJaballah/SmartLearn-mern-project/storage/database"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
	sqlxrepos "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	courses     course.Repository
	exercises   exercise.Repository
	submissions submission.Repository
	enrollments enrollment.Repository
	sessions    chat.Repository
	profiles    profile.Repository
	activities  activitylog.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl := logsvc.NewZap(conf.Log)
	defer func() { _ = zl.Sync() }()

	rootLogger := logsvc.NewRollbarLogger(zl, conf)
	rootLogger.Enable(!conf.Debug && conf.RollbarToken != "")
	logger := rootLogger.Named("API")
	dbLogger := rootLogger.Named("DB")

	// set up storage
	repos, closeDB, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	var appCache core.Cache
	if conf.Redis.Address != "" {
		redisCache := cache.NewRedisCache(cache.NewRedisClient(conf.Redis), conf.Redis.TTL)
		if err = redisCache.Ping(context.Background()); err != nil {
			logger.Warn("redis is unreachable, cached values will be missing", err)
		}
		defer func() { _ = redisCache.Close() }()
		appCache = redisCache
	} else {
		appCache = cache.NewMemoryCache(conf.Redis.TTL)
	}

	// set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink := metricsvc.NewPrometheusSink(registry, logger)

	// set up services
	// set up tracing before any tracer is obtained
	tp := tracesvc.NewProvider(conf, rootLogger.Named("TRACE"))
	defer func() {
		if err := tracesvc.Shutdown(tp, conf.Server.ShutdownTimeout); err != nil {
			logger.Error("Failed to flush spans", err)
		}
	}()

	aiClient := aisvc.NewClient(aisvc.NewRegistry(conf.AI), logger.Named("AI")).WithMetrics(sink)

	var mailSvc core.EmailService
	if conf.Debug || conf.Email.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(repos.users)
	courseSvc := course.NewService(repos.courses, aiClient, logger)
	exerciseSvc := exercise.NewService(repos.exercises, courseSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Metrics:       sink,
		Gatherer:      registry,
		Cache:         appCache,
		AI:            aiClient,
		UserSvc:       usrSvc,
		CourseSvc:     courseSvc,
		ExerciseSvc:   exerciseSvc,
		SubmissionSvc: submission.NewService(repos.submissions, exerciseSvc, courseSvc, aiClient, logger),
		EnrollmentSvc: enrollment.NewService(repos.enrollments, courseSvc, mailSvc, logger, conf.FrontendBaseURL),
		ChatSvc:       chat.NewService(repos.sessions),
		ProfileSvc:    profile.NewService(repos.profiles),
		ActivitySvc:   activitylog.NewService(repos.activities),
	})

	go func() {
		logger.Info("API listening on " + conf.Server.Address)
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		os.Exit(1)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage opens PostgreSQL, or the in-memory store in debug mode when no database user is configured.
func setUpStorage(conf *core.Config) (repositories, func() error, error) {
	if conf.Debug && conf.Database.User == "" {
		mem, err := inmemdb.Open()
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			users:       inmemdb.NewUserRepository(mem),
			courses:     inmemdb.NewCourseRepository(mem),
			exercises:   inmemdb.NewExerciseRepository(mem),
			submissions: inmemdb.NewSubmissionRepository(mem),
			enrollments: inmemdb.NewEnrollmentRepository(mem),
			sessions:    inmemdb.NewChatSessionRepository(mem),
			profiles:    inmemdb.NewProfileRepository(mem),
			activities:  inmemdb.NewActivityLogRepository(mem),
		}, func() error { return nil }, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		courses:     sqlxrepos.NewCourseRepository(db),
		exercises:   sqlxrepos.NewExerciseRepository(db),
		submissions: sqlxrepos.NewSubmissionRepository(db),
		enrollments: sqlxrepos.NewEnrollmentRepository(db),
		sessions:    sqlxrepos.NewChatSessionRepository(db),
		profiles:    sqlxrepos.NewProfileRepository(db),
		activities:  sqlxrepos.NewActivityLogRepository(db),
	}, db.Close, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf.Database); err != nil {
		return nil, err
	}

	db, err := database.Open(conf.Database)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
