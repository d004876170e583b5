package reaper

import (
	"errors"
	"flag"
	"os/user"
	"time"

	"github.com/vislab/jobpool/srcs/go/config"
	"github.com/vislab/jobpool/srcs/go/dispatch"
	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/pool"
	"github.com/vislab/jobpool/srcs/go/utils"
)

func Init(f *FlagSet, args []string) {
	if err := f.Parse(args); err != nil {
		utils.ExitErr(err)
	}
	utils.LogArgs()
}

type FlagSet struct {
	User        string
	Pools       string
	ConfigFile  string
	Manifest    string
	HostPrefix  string
	Workers     int
	PingTimeout time.Duration
	ListOnly    bool
	KeyFile     string

	JobName string
}

func (f *FlagSet) Register(flag *flag.FlagSet) {
	flag.StringVar(&f.User, "u", currentUser(), "user owning the processes")
	flag.StringVar(&f.Pools, "pool", "cgpu", "machine pool: cpu | gpu | cgpu")
	flag.StringVar(&f.ConfigFile, "config", "", "take the machines from a dispatch config")
	flag.StringVar(&f.Manifest, "manifest", "", "take the machines from the manifest of a past run")
	flag.StringVar(&f.HostPrefix, "host-prefix", "", "host name prefix of numbered machines")
	flag.IntVar(&f.Workers, "t", 8, "number of machines visited concurrently")
	flag.DurationVar(&f.PingTimeout, "ping-timeout", config.PingTimeout, "ping timeout per machine")
	flag.BoolVar(&f.ListOnly, "n", false, "list matching processes, kill nothing")
	flag.StringVar(&f.KeyFile, "key", "", "ssh private key")
}

var errMissingJobName = errors.New("usage: jobpool-reap [flags] <job_name>")

func (f *FlagSet) Parse(args []string) error {
	commandLine := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Register(commandLine)
	commandLine.Parse(args[1:])
	args = commandLine.Args()
	if len(args) != 1 || len(args[0]) == 0 {
		return errMissingJobName
	}
	f.JobName = args[0]
	return nil
}

// Machines resolves the target machines: a manifest first, then a dispatch
// config, otherwise the whole lab.
func (f *FlagSet) Machines() (plan.MachineList, error) {
	pools, err := plan.ParsePoolSelector(f.Pools)
	if err != nil {
		return nil, err
	}
	ml, err := f.allMachines()
	if err != nil {
		return nil, err
	}
	return ml.Select(pools...), nil
}

func (f *FlagSet) allMachines() (plan.MachineList, error) {
	if len(f.Manifest) > 0 {
		m, err := pool.ReadManifest(f.Manifest)
		if err != nil {
			return nil, err
		}
		var ml plan.MachineList
		for _, s := range m.Slots {
			p, err := plan.ParsePool(s.Pool)
			if err != nil {
				return nil, err
			}
			ml = append(ml, plan.Machine{Pool: p, Host: s.Host})
		}
		return ml, nil
	}
	mc := plan.DefaultMachineConfig
	if len(f.ConfigFile) > 0 {
		cfg, err := dispatch.LoadConfig(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		if len(f.HostPrefix) == 0 {
			return cfg.MachineList(1)
		}
		mc = cfg.Machines
	}
	if len(f.HostPrefix) > 0 {
		mc.HostPrefix = f.HostPrefix
	}
	mc.Shuffle = false
	return plan.BuildMachineList(mc, nil), nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
