// Package dispatch splits a job list across the lab machines and starts one
// execution client on each of them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vislab/jobpool/srcs/go/history"
	"github.com/vislab/jobpool/srcs/go/job"
	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/pool"
	"github.com/vislab/jobpool/srcs/go/proc"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/runner/remote"
)

// Options are the command line switches of a dispatch.
type Options struct {
	DryRun bool
	Strict bool
	Yes    bool
	Seed   int64

	// forwarded to every execution client
	ExecSeg    int
	ExecThread int
	ExecCap    int
	ExecDryRun bool
}

// ExecArgs are the flags passed to each execution client.
func (o Options) ExecArgs() []string {
	var args []string
	if o.ExecSeg > 0 {
		args = append(args, "-e", strconv.Itoa(o.ExecSeg))
	}
	if o.ExecThread > 0 {
		args = append(args, "-t", strconv.Itoa(o.ExecThread))
	}
	if o.ExecCap > 0 {
		args = append(args, "-c", strconv.Itoa(o.ExecCap))
	}
	if o.ExecDryRun {
		args = append(args, "-d")
	}
	return args
}

// Run is the outcome of one dispatch.
type Run struct {
	ID       string
	JobName  string
	PoolDir  string
	Machines plan.MachineList
	Launches []proc.Proc
	Jobs     []job.Job
	Slots    []pool.SlotFile
	Failed   int
}

type Dispatcher struct {
	Config   Config
	Options  Options
	Executor remote.Executor
	History  *history.Store // optional

	In  io.Reader
	Out io.Writer
}

var errNoMachines = errors.New("no machines")

func (d *Dispatcher) ask(msg string) error {
	in, out := d.In, d.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return utils.AskToProceed(in, out, msg)
}

func (d *Dispatcher) printf(format string, v ...interface{}) {
	out := d.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, v...)
}

func (d *Dispatcher) Run(ctx context.Context) (*Run, error) {
	cfg := d.Config
	opt := d.Options
	dir := pool.New(cfg.PoolDir)
	if err := dir.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset pool dir: %w", err)
	}
	expectFile, err := d.resolveExpectFile()
	if err != nil {
		return nil, err
	}
	machines, err := cfg.MachineList(opt.Seed)
	if err != nil {
		return nil, err
	}
	if len(machines) == 0 {
		return nil, errNoMachines
	}
	log.Infof("using %s: %s", utils.Pluralize(len(machines), "machine", "machines"), machines)

	jobs, err := d.generate(expectFile)
	if err != nil {
		return nil, err
	}
	slots, err := job.Split(jobs, len(machines))
	if err != nil {
		return nil, err
	}
	jobName := cfg.JobName()
	files, err := dir.WriteSlots(jobName, slots)
	if err != nil {
		return nil, err
	}
	log.Infof("%s split into %s under %s", utils.Pluralize(len(jobs), "job", "jobs"), utils.Pluralize(len(files), "slot", "slots"), dir.Path)

	if len(jobs) > 0 && !opt.Yes && !opt.DryRun {
		if err := d.ask(fmt.Sprintf("The first job is:\n\t%s", jobs[0].Cmd)); err != nil {
			return nil, err
		}
	}

	r := &Run{
		ID:       uuid.NewString(),
		JobName:  jobName,
		PoolDir:  dir.Path,
		Machines: machines,
		Jobs:     jobs,
		Slots:    files,
	}
	var sshCmds []string
	for i, m := range machines {
		p := d.launchProc(files[i], m)
		r.Launches = append(r.Launches, p)
		sshCmds = append(sshCmds, p.SSHCommand())
	}
	if _, err := dir.WriteLaunchLog(sshCmds); err != nil {
		return nil, err
	}
	if _, err := dir.WriteManifest(d.manifest(r)); err != nil {
		return nil, err
	}

	if opt.DryRun {
		for _, c := range sshCmds {
			d.printf("%s\n", c)
		}
	} else {
		r.Failed, err = remote.LaunchAll(ctx, d.Executor, r.Launches)
		if err != nil {
			log.Warnf("%v", err)
		}
		log.Infof("launched %d/%d execution clients", len(r.Launches)-r.Failed, len(r.Launches))
	}
	d.record(ctx, r)
	return r, nil
}

// resolveExpectFile returns the expect file to use, or "" when every job must run.
func (d *Dispatcher) resolveExpectFile() (string, error) {
	name := d.Config.ExpectFile
	if len(name) == 0 {
		return "", nil
	}
	if job.FileExists(name) {
		return name, nil
	}
	log.Warnf("expect file %s not found, every job will run", name)
	if d.Options.Strict {
		if err := d.ask(fmt.Sprintf("Expect file %s is missing, all jobs will be scheduled.", name)); err != nil {
			return "", err
		}
	}
	return "", nil
}

func (d *Dispatcher) generate(expectFile string) ([]job.Job, error) {
	params, err := job.ReadLines(d.Config.ParamsFile)
	if err != nil {
		return nil, err
	}
	var expects []string
	if len(expectFile) > 0 {
		if expects, err = job.ReadLines(expectFile); err != nil {
			return nil, err
		}
		if expects == nil {
			expects = []string{}
		}
	}
	jobs, err := job.Generate(d.Config.CmdPrefix(), params, expects)
	if err != nil {
		return nil, fmt.Errorf("%s and %s: %w", d.Config.ParamsFile, expectFile, err)
	}
	return jobs, nil
}

func (d *Dispatcher) launchProc(f pool.SlotFile, m plan.Machine) proc.Proc {
	args := d.Options.ExecArgs()
	args = append(args, f.Cmds, f.Expects)
	return proc.Proc{
		Name:     fmt.Sprintf("%s-%d", d.Config.JobName(), f.Slot),
		Prog:     d.Config.ExecClient,
		Args:     args,
		Hostname: m.Host,
		ChDir:    d.Config.CurrDir,
	}
}

func (d *Dispatcher) manifest(r *Run) pool.Manifest {
	m := pool.Manifest{
		ID:        r.ID,
		JobName:   r.JobName,
		CreatedAt: time.Now(),
		CurrDir:   d.Config.CurrDir,
		DryRun:    d.Options.DryRun,
		Jobs:      len(r.Jobs),
	}
	for i, f := range r.Slots {
		m.Slots = append(m.Slots, pool.SlotHost{
			SlotFile: f,
			Host:     r.Machines[i].Host,
			Pool:     r.Machines[i].Pool.String(),
		})
	}
	return m
}

func (d *Dispatcher) record(ctx context.Context, r *Run) {
	if d.History == nil {
		return
	}
	err := d.History.Record(ctx, history.Run{
		ID:        r.ID,
		JobName:   r.JobName,
		PoolDir:   r.PoolDir,
		Machines:  len(r.Machines),
		Jobs:      len(r.Jobs),
		DryRun:    d.Options.DryRun,
		Failed:    r.Failed,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Warnf("failed to record run %s: %v", r.ID, err)
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
