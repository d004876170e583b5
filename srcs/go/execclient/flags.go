package execclient

import (
	"errors"
	"flag"
	"runtime"

	"github.com/vislab/jobpool/srcs/go/utils"
)

func Init(f *FlagSet, args []string) {
	if err := f.Parse(args); err != nil {
		utils.ExitErr(err)
	}
	if !f.DryRun {
		utils.LogArgs()
		utils.LogJobpoolEnv()
	}
}

type FlagSet struct {
	Threads       int
	ProgressEvery int
	Cap           int
	DryRun        bool

	VerboseLog bool
	DebugPort  int
	Logfile    string
	LogDir     string

	CmdsFile    string
	ExpectsFile string
}

func (f *FlagSet) Register(flag *flag.FlagSet) {
	flag.IntVar(&f.Threads, "t", runtime.NumCPU(), "number of concurrent jobs")
	flag.IntVar(&f.ProgressEvery, "e", 1, "log progress every this many finished jobs")
	flag.IntVar(&f.ProgressEvery, "p", 1, "alias of -e")
	flag.IntVar(&f.Cap, "c", 0, "run at most this many jobs of the slot, 0 for all")
	flag.IntVar(&f.Cap, "q", 0, "alias of -c")
	flag.BoolVar(&f.DryRun, "d", false, "list the jobs that would run")

	flag.BoolVar(&f.VerboseLog, "v", false, "show job output")
	flag.IntVar(&f.DebugPort, "debug-port", 0, "port for HTTP debug server")
	flag.StringVar(&f.Logfile, "logfile", "", "path to log file")
	flag.StringVar(&f.LogDir, "logdir", "", "path to per-job log dir")
}

var errMissingSlotFiles = errors.New("usage: jobpool-exec [flags] <cmds_file> <expects_file>")

func (f *FlagSet) Parse(args []string) error {
	commandLine := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Register(commandLine)
	commandLine.Parse(args[1:])
	args = commandLine.Args()
	if len(args) != 2 {
		return errMissingSlotFiles
	}
	f.CmdsFile = args[0]
	f.ExpectsFile = args[1]
	return nil
}

func (f *FlagSet) Config() Config {
	return Config{
		CmdsFile:      f.CmdsFile,
		ExpectsFile:   f.ExpectsFile,
		Threads:       f.Threads,
		ProgressEvery: f.ProgressEvery,
		Cap:           f.Cap,
		DryRun:        f.DryRun,
		LogDir:        f.LogDir,
		VerboseLog:    f.VerboseLog,
	}
}
