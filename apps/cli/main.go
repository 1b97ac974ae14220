package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
	"github.com/trezcool/classboard/services/logger"
	"github.com/trezcool/classboard/services/metrics"
	"github.com/trezcool/classboard/storage/backend/inmem"
	"github.com/trezcool/classboard/storage/backend/restapi"
)

type backend interface {
	user.Backend
	task.Backend
	ranking.Backend
}

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewZap(conf).With(zap.String("app", "cli")), conf)
	logger.Enable(false)
	defer logger.Sync()

	var be backend
	switch conf.Backend.Driver {
	case "inmem":
		db := inmembackend.NewDB()
		inmembackend.Seed(db)
		be = inmembackend.NewBackend(db)
		logger.Warn(fmt.Sprintf("demo mode: in-memory backend, password %q for every account", inmembackend.DemoPassword))
	default:
		be = restapi.NewClient(conf, metrics.New())
	}

	cli := commandLine{
		out:        os.Stdout,
		preview:    conf.UI.TaskPreview,
		usrSvc:     user.NewService(be),
		taskSvc:    task.NewService(be, nil),
		rankingSvc: ranking.NewService(be, conf.UI.RankingTopN),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
