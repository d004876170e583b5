package remote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vislab/jobpool/srcs/go/proc"
)

type fakeExecutor struct {
	sync.Mutex
	down    map[string]bool
	scripts map[string][]string
}

func (f *fakeExecutor) Output(ctx context.Context, host, script string) (string, error) {
	f.Lock()
	defer f.Unlock()
	if f.down[host] {
		return "", errors.New("connection refused")
	}
	if f.scripts == nil {
		f.scripts = make(map[string][]string)
	}
	f.scripts[host] = append(f.scripts[host], script)
	return "", nil
}

func Test_LaunchAll(t *testing.T) {
	e := &fakeExecutor{down: map[string]bool{"vision02": true}}
	var ps []proc.Proc
	for _, h := range []string{"vision01", "vision02", "vision03"} {
		ps = append(ps, proc.Proc{Name: h, Hostname: h, Prog: "jobpool-exec", Args: []string{"a.cmds", "a.expects"}})
	}
	failed, err := LaunchAll(context.Background(), e, ps)
	if failed != 1 {
		t.Errorf("expected 1 failed launch, got %d", failed)
	}
	if err == nil || !strings.Contains(err.Error(), "vision02") {
		t.Fatalf("expected failure on vision02, got %v", err)
	}
	for _, h := range []string{"vision01", "vision03"} {
		if len(e.scripts[h]) != 1 {
			t.Fatalf("expected one launch on %s", h)
		}
		if s := e.scripts[h][0]; !strings.HasPrefix(s, "nohup sh -c ") || !strings.HasSuffix(s, "&") {
			t.Errorf("launch on %s is not detached: %q", h, s)
		}
	}
}
