package main

import (
	"context"
	"os"

	"github.com/vislab/jobpool/srcs/go/config"
	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/reaper"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/runner/remote"
)

func main() {
	var f reaper.FlagSet
	reaper.Init(&f, os.Args)
	defer log.Sync()
	machines, err := f.Machines()
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("looking for %q of %s on %s", f.JobName, f.User, utils.Pluralize(len(machines), "machine", "machines"))
	r := reaper.Reaper{
		JobName:     f.JobName,
		User:        f.User,
		Self:        utils.Hostname(),
		Workers:     f.Workers,
		PingTimeout: f.PingTimeout,
		ListOnly:    f.ListOnly,
		Executor: remote.SSH{
			User:    f.User,
			KeyFile: f.KeyFile,
			Timeout: config.SSHTimeout,
		},
		Pinger: reaper.ExecPinger{},
	}
	results := r.Reap(context.Background(), machines)
	for _, res := range results {
		switch res.Outcome {
		case reaper.Partial, reaper.ListFailed:
			log.Warnf("%s", res)
		case reaper.Unreachable, reaper.Self:
			log.Debugf("%s", res)
		default:
			log.Infof("%s", res)
		}
	}
	s := reaper.Summary(results)
	log.Infof("%d killed, %d partial, %d none, %d unreachable, %d list-failed", s[reaper.Killed], s[reaper.Partial], s[reaper.None], s[reaper.Unreachable], s[reaper.ListFailed])
}
