package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/vislab/jobpool/srcs/go/config"
	"github.com/vislab/jobpool/srcs/go/dispatch"
	"github.com/vislab/jobpool/srcs/go/history"
	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/runner/remote"
)

func main() {
	var f dispatch.FlagSet
	dispatch.Init(&f, os.Args)
	if len(f.Logfile) > 0 {
		lf, err := os.Create(f.Logfile)
		if err != nil {
			utils.ExitErr(err)
		}
		defer lf.Close()
		log.SetOutput(lf)
	}
	defer log.Sync()
	ctx := context.Background()
	if len(f.ConfigFile) == 0 {
		listHistory(ctx, config.HistoryDB, f.History)
		return
	}
	cfg, err := dispatch.LoadConfig(f.ConfigFile)
	if err != nil {
		utils.ExitErr(err)
	}
	if f.History > 0 {
		listHistory(ctx, cfg.HistoryDB, f.History)
		return
	}
	d := dispatch.Dispatcher{
		Config:  *cfg,
		Options: f.Options,
		Executor: remote.SSH{
			User:    cfg.User,
			KeyFile: cfg.KeyFile,
			Timeout: config.SSHTimeout,
		},
	}
	if cfg.HistoryDB != config.NoHistory {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			defer store.Close()
			d.History = store
		}
	}
	t0 := time.Now()
	r, err := d.Run(ctx)
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("run %s: %s on %s, took %s", r.ID, utils.Pluralize(len(r.Jobs), "job", "jobs"), utils.Pluralize(len(r.Machines), "machine", "machines"), time.Since(t0))
}

func listHistory(ctx context.Context, db string, limit int) {
	if db == config.NoHistory {
		utils.ExitErr(errors.New("history is disabled"))
	}
	store, err := history.Open(db)
	if err != nil {
		utils.ExitErr(err)
	}
	defer store.Close()
	runs, err := store.Recent(ctx, limit)
	if err != nil {
		utils.ExitErr(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJOB\tJOBS\tMACHINES\tFAILED\tDRY RUN\tCREATED\tPOOL")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%t\t%s\t%s\n", r.ID, r.JobName, r.Jobs, r.Machines, r.Failed, r.DryRun, r.CreatedAt.Local().Format(time.DateTime), r.PoolDir)
	}
	w.Flush()
}
