package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classboard/apps/web/echo"
	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/comment"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
	"github.com/trezcool/classboard/services/logger"
	"github.com/trezcool/classboard/services/metrics"
	"github.com/trezcool/classboard/storage/backend/inmem"
	"github.com/trezcool/classboard/storage/backend/restapi"
	"github.com/trezcool/classboard/storage/session/inmem"
	"github.com/trezcool/classboard/storage/session/redisstore"
)

// backend is everything the dashboard asks of the classroom API.
type backend interface {
	user.Backend
	task.Backend
	submission.Backend
	comment.Backend
	ranking.Backend
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl := logsvc.NewZap(conf)
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	mtr := metrics.New()

	// set up the classroom backend
	var be backend
	switch conf.Backend.Driver {
	case "inmem":
		db := inmembackend.NewDB()
		inmembackend.Seed(db)
		be = inmembackend.NewBackend(db)
		logger.Warn(fmt.Sprintf("demo mode: in-memory backend, password %q for every account", inmembackend.DemoPassword))
	default:
		be = restapi.NewClient(conf, mtr)
	}

	// set up the session store
	var sessions session.Store
	switch conf.Session.Store {
	case "redis":
		rds := redisstore.NewClient(conf)
		if err := rds.Ping(context.Background()).Err(); err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer func() {
			if err := rds.Close(); err != nil {
				logger.Error("closing redis", err)
			}
		}()
		sessions = redisstore.NewStore(rds)
	default:
		sessions = inmemsession.NewStore()
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Sessions:      sessions,
			UserSvc:       user.NewService(be),
			TaskSvc:       task.NewService(be, validate),
			SubmissionSvc: submission.NewService(be),
			CommentSvc:    comment.NewService(be),
			RankingSvc:    ranking.NewService(be, conf.UI.RankingTopN),
			Metrics:       mtr,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
