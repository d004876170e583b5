// Package reaper kills stray processes of a job across the lab machines.
package reaper

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/runner/remote"
)

type Outcome int

const (
	Self Outcome = iota
	Unreachable
	ListFailed
	None
	Killed
	Partial
)

var outcomeNames = map[Outcome]string{
	Self:        "self",
	Unreachable: "unreachable",
	ListFailed:  "list-failed",
	None:        "none",
	Killed:      "killed",
	Partial:     "partial",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Process is one line of ps output.
type Process struct {
	PID  int
	TTY  string
	Stat string
	Args string
}

// Result is what happened on one machine.
type Result struct {
	Host    string
	Outcome Outcome
	Matched []Process
	Killed  []int
	Err     error
}

func (r Result) String() string {
	s := fmt.Sprintf("%s: %s", r.Host, r.Outcome)
	if len(r.Matched) > 0 {
		s += fmt.Sprintf(" (%d/%d killed)", len(r.Killed), len(r.Matched))
	}
	if r.Err != nil {
		s += fmt.Sprintf(": %v", r.Err)
	}
	return s
}

// Pinger checks whether a host is up.
type Pinger interface {
	Ping(ctx context.Context, host string) error
}

// ExecPinger runs the system ping once.
type ExecPinger struct{}

func (ExecPinger) Ping(ctx context.Context, host string) error {
	return exec.CommandContext(ctx, "ping", "-c", "1", host).Run()
}

type Reaper struct {
	JobName     string
	User        string
	Self        string
	Workers     int
	PingTimeout time.Duration
	ListOnly    bool

	Executor remote.Executor
	Pinger   Pinger
}

func (r *Reaper) psCommand() string {
	return fmt.Sprintf("ps -u %s -o pid=,tty=,stat=,args=", r.User)
}

// Reap visits every machine and returns the results ordered by host name.
// It never stops at a failing machine.
func (r *Reaper) Reap(ctx context.Context, machines plan.MachineList) []Result {
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(machines))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, m := range machines {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.reapOne(ctx, host)
		}(i, m.Host)
	}
	wg.Wait()
	sort.SliceStable(results, func(i, j int) bool { return results[i].Host < results[j].Host })
	return results
}

func (r *Reaper) reapOne(ctx context.Context, host string) Result {
	res := Result{Host: host}
	if len(r.Self) > 0 && utils.ShortHost(host) == utils.ShortHost(r.Self) {
		res.Outcome = Self
		return res
	}
	if r.Pinger != nil {
		pctx := ctx
		if r.PingTimeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, r.PingTimeout)
			defer cancel()
		}
		if err := r.Pinger.Ping(pctx, host); err != nil {
			res.Outcome = Unreachable
			res.Err = err
			return res
		}
	}
	out, err := r.Executor.Output(ctx, host, r.psCommand())
	if err != nil {
		res.Outcome = ListFailed
		res.Err = err
		return res
	}
	res.Matched = Match(ParsePS(out), r.JobName, r.psCommand())
	if len(res.Matched) == 0 {
		res.Outcome = None
		return res
	}
	if r.ListOnly {
		for _, p := range res.Matched {
			log.Infof("%s: %d %s", host, p.PID, p.Args)
		}
		res.Outcome = None
		return res
	}
	var errs []error
	for _, p := range res.Matched {
		if _, err := r.Executor.Output(ctx, host, fmt.Sprintf("kill -9 %d", p.PID)); err != nil {
			errs = append(errs, fmt.Errorf("%d: %w", p.PID, err))
			continue
		}
		res.Killed = append(res.Killed, p.PID)
	}
	res.Err = utils.MergeErrors(errs, "kill")
	if len(res.Killed) == len(res.Matched) {
		res.Outcome = Killed
	} else {
		res.Outcome = Partial
	}
	return res
}

// ParsePS parses `ps -o pid=,tty=,stat=,args=` output. Malformed lines are ignored.
func ParsePS(out string) []Process {
	var ps []Process
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ps = append(ps, Process{
			PID:  pid,
			TTY:  fields[1],
			Stat: fields[2],
			Args: strings.Join(fields[3:], " "),
		})
	}
	return ps
}

// Match selects the detached processes (no controlling terminal) whose
// command line mentions jobName, except the listing command itself.
func Match(ps []Process, jobName, listing string) []Process {
	var sel []Process
	for _, p := range ps {
		if p.TTY != "?" {
			continue
		}
		if !strings.Contains(p.Args, jobName) {
			continue
		}
		if strings.Contains(p.Args, listing) {
			continue
		}
		sel = append(sel, p)
	}
	return sel
}

// Summary counts results by outcome.
func Summary(results []Result) map[Outcome]int {
	m := make(map[Outcome]int)
	for _, r := range results {
		m[r.Outcome]++
	}
	return m
}
