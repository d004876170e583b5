package main

import (
	"context"
	"os"
	"time"

	"github.com/vislab/jobpool/srcs/go/execclient"
	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/monitor"
	"github.com/vislab/jobpool/srcs/go/utils"
)

func main() {
	var f execclient.FlagSet
	execclient.Init(&f, os.Args)
	if len(f.Logfile) > 0 {
		lf, err := os.Create(f.Logfile)
		if err != nil {
			utils.ExitErr(err)
		}
		defer lf.Close()
		log.SetOutput(lf)
	}
	defer log.Sync()
	t0 := time.Now()
	defer func(prog string) { log.Infof("%s took %s", prog, time.Since(t0)) }(utils.ProgName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := utils.Trap(func(sig os.Signal) {
		log.Warnf("%s received, killing running jobs", sig)
		cancel()
	})
	defer stop()

	cfg := f.Config()
	cfg.Host = utils.Hostname()
	if f.DebugPort > 0 {
		cfg.Monitor = monitor.New(cfg.Host)
		srv := monitor.StartServer(f.DebugPort, cfg.Monitor.Handler())
		defer srv.Stop()
	}
	client := execclient.New(cfg)
	if cfg.Monitor != nil {
		cfg.Monitor.SetStatus(func() interface{} { return client.Snapshot() })
	}
	r, err := client.Run(ctx)
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("(%s) %d/%d scheduled jobs finished: %d succeeded, %d failed, %d skipped of %s", r.Host, r.Completed(), r.Scheduled, r.Succeeded, r.Failed, r.Skipped, utils.Pluralize(r.Total, "job", "jobs"))
}
