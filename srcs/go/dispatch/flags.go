package dispatch

import (
	"errors"
	"flag"

	"github.com/vislab/jobpool/srcs/go/utils"
)

func Init(f *FlagSet, args []string) {
	if err := f.Parse(args); err != nil {
		utils.ExitErr(err)
	}
	utils.LogArgs()
	utils.LogJobpoolEnv()
}

type FlagSet struct {
	Options
	History int
	Logfile string

	ConfigFile string
}

func (f *FlagSet) Register(flag *flag.FlagSet) {
	flag.BoolVar(&f.DryRun, "dryrun", false, "write the slot files and print the launch commands without running them")
	flag.BoolVar(&f.Strict, "strict", false, "ask before proceeding without an expect file")
	flag.BoolVar(&f.Yes, "y", false, "don't ask to confirm the first job")
	flag.Int64Var(&f.Seed, "seed", 0, "seed of the machine shuffle, 0 for a random one")

	flag.IntVar(&f.ExecSeg, "exec-seg", 0, "progress interval of the execution clients")
	flag.IntVar(&f.ExecThread, "exec-thread", 0, "number of threads of each execution client, 0 for one per CPU")
	flag.IntVar(&f.ExecCap, "exec-cap", 0, "max number of jobs per execution client, 0 for all")
	flag.BoolVar(&f.ExecDryRun, "exec-dryrun", false, "launch the execution clients in dry run mode")

	flag.IntVar(&f.History, "history", 0, "list this many past runs and exit")
	flag.StringVar(&f.Logfile, "logfile", "", "path to log file")
}

var errMissingConfig = errors.New("usage: jobpool-dispatch [flags] <config.ini>")

func (f *FlagSet) Parse(args []string) error {
	commandLine := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Register(commandLine)
	commandLine.Parse(args[1:])
	args = commandLine.Args()
	if len(args) != 1 {
		if f.History > 0 && len(args) == 0 {
			return nil
		}
		return errMissingConfig
	}
	f.ConfigFile = args[0]
	return nil
}
