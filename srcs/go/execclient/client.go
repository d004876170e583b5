// Package execclient runs one slot of a dispatch on the local machine.
package execclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/vislab/jobpool/srcs/go/job"
	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/monitor"
	"github.com/vislab/jobpool/srcs/go/pool"
	"github.com/vislab/jobpool/srcs/go/proc"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/iostream"
	"github.com/vislab/jobpool/srcs/go/utils/runner/local"
	"github.com/vislab/jobpool/srcs/go/utils/xterm"
)

type Config struct {
	CmdsFile    string
	ExpectsFile string

	Threads       int // <= 0 means one per CPU
	ProgressEvery int
	Cap           int // <= 0 means no cap
	DryRun        bool

	// LogDir holds per-job stdout/stderr files. When empty, outputs are
	// appended to the slot's shared .out and .err files.
	LogDir     string
	VerboseLog bool

	Host    string
	Exists  job.ExistsFunc
	Monitor *monitor.Monitor
}

// Report summarizes one invocation.
type Report struct {
	Host      string        `json:"host"`
	Total     int           `json:"total"`
	Skipped   int           `json:"skipped"`
	Scheduled int           `json:"scheduled"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Running   int           `json:"running"`
	Took      time.Duration `json:"took"`
	Statuses  []job.Status  `json:"-"`
}

// Completed is the number of scheduled jobs that reached a final status.
func (r Report) Completed() int {
	return r.Succeeded + r.Failed
}

type Client struct {
	cfg Config

	mu       sync.Mutex
	t0       time.Time
	statuses []job.Status
}

func New(cfg Config) *Client {
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 1
	}
	if len(cfg.Host) == 0 {
		cfg.Host = utils.Hostname()
	}
	if cfg.Exists == nil {
		cfg.Exists = job.FileExists
	}
	return &Client{cfg: cfg}
}

func (c *Client) setStatus(i int, s job.Status) {
	c.mu.Lock()
	c.statuses[i] = s
	c.mu.Unlock()
	if c.cfg.Monitor != nil {
		c.cfg.Monitor.Observe(s)
	}
}

// Snapshot reports the current state; it is safe to call while Run is in progress.
func (c *Client) Snapshot() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := Report{
		Host:     c.cfg.Host,
		Total:    len(c.statuses),
		Statuses: append([]job.Status(nil), c.statuses...),
	}
	if !c.t0.IsZero() {
		r.Took = time.Since(c.t0)
	}
	for _, s := range c.statuses {
		switch s {
		case job.Skipped:
			r.Skipped++
		case job.Running:
			r.Running++
		case job.Succeeded:
			r.Succeeded++
		case job.Failed:
			r.Failed++
		}
	}
	r.Scheduled = r.Total - r.Skipped
	return r
}

// Run executes every job of the slot whose expected outputs are missing.
// A failed job is recorded and never retried; rerunning the dispatch is the retry.
func (c *Client) Run(ctx context.Context) (*Report, error) {
	jobs, err := pool.ReadSlot(c.cfg.CmdsFile, c.cfg.ExpectsFile)
	if err != nil {
		return nil, err
	}
	if c.cfg.Cap > 0 && len(jobs) > c.cfg.Cap {
		log.Infof("capping %s to the first %d", utils.Pluralize(len(jobs), "job", "jobs"), c.cfg.Cap)
		jobs = jobs[:c.cfg.Cap]
	}
	c.mu.Lock()
	c.t0 = time.Now()
	c.statuses = make([]job.Status, len(jobs))
	c.mu.Unlock()

	var todo []job.Job
	for i, j := range jobs {
		s := job.Check(j, c.cfg.Exists)
		c.setStatus(i, s)
		if s == job.Pending {
			todo = append(todo, j)
		}
	}
	log.Infof("(%s) %s, %d already done, %d to run", c.cfg.Host, utils.Pluralize(len(jobs), "job", "jobs"), len(jobs)-len(todo), len(todo))

	if c.cfg.DryRun {
		for _, j := range todo {
			log.Infof("(%s) %s", c.cfg.Host, j.Cmd)
		}
		return c.report(), nil
	}
	if len(todo) == 0 {
		log.Infof("(%s) no jobs", c.cfg.Host)
		return c.report(), nil
	}

	failures, err := openFailureLog(pool.FailureLog(c.cfg.CmdsFile), c.cfg.Host)
	if err != nil {
		return nil, err
	}
	defer failures.Close()
	var shared *sharedOutputs
	if len(c.cfg.LogDir) == 0 {
		shared = openSharedOutputs(c.cfg.CmdsFile)
		defer shared.Close()
	}
	err = c.runAll(ctx, todo, failures, shared)
	return c.report(), err
}

func (c *Client) report() *Report {
	r := c.Snapshot()
	return &r
}

type result struct {
	job  job.Job
	code int
	err  error
}

func (c *Client) runAll(ctx context.Context, todo []job.Job, failures io.Writer, shared *sharedOutputs) error {
	queue := make(chan job.Job)
	results := make(chan result)
	var wg sync.WaitGroup
	for w := 0; w < c.cfg.Threads && w < len(todo); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				results <- c.runOne(ctx, j, shared)
			}
		}()
	}
	go func() {
		defer close(queue)
		for _, j := range todo {
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var done, failed int
	for r := range results {
		done++
		if r.err != nil {
			failed++
			if _, err := fmt.Fprintf(failures, "%s: %d\n", r.job.Cmd, r.code); err != nil {
				log.Warnf("(%s) failed to record failure of %q: %v", c.cfg.Host, r.job.Cmd, err)
			}
			log.Debugf("#<%d> exited with error: %v", r.job.Index, r.err)
		}
		if done%c.cfg.ProgressEvery == 0 || done == len(todo) {
			log.Infof("(%s) %d/%d done, %d failed, took %s", c.cfg.Host, done, len(todo), failed, time.Since(c.t0))
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stopped after %d/%d jobs: %w", done, len(todo), err)
	}
	return nil
}

func (c *Client) runOne(ctx context.Context, j job.Job, shared *sharedOutputs) result {
	c.setStatus(j.Index, job.Running)
	name := fmt.Sprintf("job-%09d", j.Index)
	r := local.Runner{
		Name:       name,
		Color:      xterm.BasicColors.Choose(j.Index),
		VerboseLog: c.cfg.VerboseLog,
		LogDir:     c.cfg.LogDir,
	}
	if len(c.cfg.LogDir) > 0 {
		r.LogFilePrefix = name
	} else {
		r.Extra = shared.Section(fmt.Sprintf("%s %s", name, j.Cmd))
	}
	err := r.Run(proc.Shell(name, j.Cmd).Cmd(ctx))
	if err != nil {
		c.setStatus(j.Index, job.Failed)
	} else {
		c.setStatus(j.Index, job.Succeeded)
	}
	return result{job: j, code: local.ExitCode(err), err: err}
}

func openFailureLog(name, host string) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "Host: %s\n\n", host); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

type sharedOutputs struct {
	files  []io.WriteCloser
	stdout *iostream.SharedLog
	stderr *iostream.SharedLog
}

// openSharedOutputs creates the slot's .out and .err files on first write.
func openSharedOutputs(cmdsFile string) *sharedOutputs {
	outName, errName := pool.OutputLogs(cmdsFile)
	s := &sharedOutputs{
		files: []io.WriteCloser{
			iostream.NewLazyAppendFile(outName),
			iostream.NewLazyAppendFile(errName),
		},
	}
	s.stdout = iostream.NewSharedLog(s.files[0])
	s.stderr = iostream.NewSharedLog(s.files[1])
	return s
}

func (s *sharedOutputs) Section(banner string) *iostream.StdWriters {
	return &iostream.StdWriters{
		Stdout: s.stdout.Section(banner),
		Stderr: s.stderr.Section(banner),
	}
}

func (s *sharedOutputs) Close() error {
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	return utils.MergeErrors(errs, "closing shared outputs")
}
