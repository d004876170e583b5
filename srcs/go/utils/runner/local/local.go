package local

import (
	"errors"
	"os/exec"
	"path"
	"time"

	"github.com/vislab/jobpool/srcs/go/utils/iostream"
	"github.com/vislab/jobpool/srcs/go/utils/xterm"
)

type Runner struct {
	Name          string
	Color         xterm.Color
	LogDir        string
	LogFilePrefix string
	VerboseLog    bool

	// Extra receives the output in addition to the default redirectors.
	Extra *iostream.StdWriters
}

// Run runs cmd to completion. The context of cmd, if any, kills its whole process group.
func (r Runner) Run(cmd *exec.Cmd) error {
	redirectors := r.defaultRedirectors()
	defer func() {
		for _, w := range redirectors {
			w.Close()
		}
	}()
	return runWith(redirectors, cmd)
}

func (r Runner) defaultRedirectors() []*iostream.StdWriters {
	var redirectors []*iostream.StdWriters
	if r.VerboseLog {
		redirectors = append(redirectors, iostream.NewXTermRedirector(r.Name, r.Color))
	}
	if len(r.LogFilePrefix) > 0 {
		redirectors = append(redirectors, iostream.NewFileRedirector(path.Join(r.LogDir, r.LogFilePrefix)))
	}
	if r.Extra != nil {
		redirectors = append(redirectors, r.Extra)
	}
	return redirectors
}

// waitDelay bounds how long output is still collected after the command
// exits. Background children inheriting stdout don't hold the job open.
const waitDelay = 500 * time.Millisecond

func runWith(redirectors []*iostream.StdWriters, cmd *exec.Cmd) error {
	setProcessGroup(cmd)
	if len(redirectors) > 0 {
		stdout, stderr := iostream.Lines(redirectors...)
		defer stdout.Flush()
		defer stderr.Flush()
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}

// ExitCode extracts the exit status from the error returned by Run.
// It is 0 for a nil error and -1 when the process did not exit normally.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*exec.ExitError); ok {
		return e.ExitCode()
	}
	return -1
}
