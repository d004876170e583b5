package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/proc"
	"github.com/vislab/jobpool/srcs/go/utils"
	"github.com/vislab/jobpool/srcs/go/utils/ssh"
)

// Executor runs a shell script on a remote host and returns its stdout.
type Executor interface {
	Output(ctx context.Context, host, script string) (string, error)
}

// SSH is an Executor that opens one ssh connection per call.
type SSH struct {
	User          string
	KeyFile       string
	Timeout       time.Duration
	StrictHostKey bool
}

func (s SSH) Output(ctx context.Context, host, script string) (string, error) {
	config := ssh.Config{
		User:          s.User,
		Host:          host,
		KeyFile:       s.KeyFile,
		Timeout:       s.Timeout,
		StrictHostKey: s.StrictHostKey,
	}
	client, err := ssh.New(ctx, config)
	if err != nil {
		return "", fmt.Errorf("failed to new SSH Client with config %v: %w", config, err)
	}
	defer client.Close()
	return client.Output(ctx, script)
}

// Launch starts p on its host without waiting for it to finish.
func Launch(ctx context.Context, e Executor, p proc.Proc) error {
	_, err := e.Output(ctx, p.Hostname, p.DetachedScript())
	return err
}

// LaunchAll launches ps one after another and returns the number of failed launches.
// A failed launch does not stop the rest.
func LaunchAll(ctx context.Context, e Executor, ps []proc.Proc) (int, error) {
	var errs []error
	for _, p := range ps {
		t0 := time.Now()
		if err := Launch(ctx, e, p); err != nil {
			log.Errorf("#<%s> failed to launch on %s: %v", p.Name, p.Hostname, err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Hostname, err))
			continue
		}
		log.Debugf("#<%s> launched on %s, took %s", p.Name, p.Hostname, time.Since(t0))
	}
	return len(errs), utils.MergeErrors(errs, fmt.Sprintf("launching %s", utils.Pluralize(len(ps), "client", "clients")))
}
