package reaper

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/pool"
)

const psOutput = `
  101 ?        Ss   sshd: alice@notty
  202 ?        S    jobpool-exec -t 8 /pool/render_000000001.cmds /pool/render_000000001.expects
  203 ?        S    python render.py 3 4
  204 pts/1    S+   vim render.py
  205 ?        R    sh -c ps -u alice -o pid=,tty=,stat=,args= | grep render
  garbage
`

type fakeHost struct {
	down     bool
	listErr  error
	ps       string
	killFail map[string]bool
}

type fakeLab struct {
	sync.Mutex
	hosts map[string]*fakeHost
	calls map[string][]string
}

func (l *fakeLab) Ping(ctx context.Context, host string) error {
	if l.hosts[host].down {
		return errors.New("100% packet loss")
	}
	return nil
}

func (l *fakeLab) Output(ctx context.Context, host, script string) (string, error) {
	l.Lock()
	if l.calls == nil {
		l.calls = make(map[string][]string)
	}
	l.calls[host] = append(l.calls[host], script)
	l.Unlock()
	h := l.hosts[host]
	if strings.HasPrefix(script, "ps ") {
		return h.ps, h.listErr
	}
	if h.killFail[script] {
		return "", errors.New("operation not permitted")
	}
	return "", nil
}

func Test_ParsePS(t *testing.T) {
	ps := ParsePS(psOutput)
	if len(ps) != 5 {
		t.Fatalf("expected 5 processes, got %d", len(ps))
	}
	want := Process{PID: 203, TTY: "?", Stat: "S", Args: "python render.py 3 4"}
	if ps[2] != want {
		t.Errorf("got %+v, want %+v", ps[2], want)
	}
}

func Test_Match(t *testing.T) {
	listing := "ps -u alice -o pid=,tty=,stat=,args="
	var pids []int
	for _, p := range Match(ParsePS(psOutput), "render", listing) {
		pids = append(pids, p.PID)
	}
	if !reflect.DeepEqual(pids, []int{202, 203}) {
		t.Errorf("unexpected matches %v", pids)
	}
}

func Test_Reap(t *testing.T) {
	lab := &fakeLab{hosts: map[string]*fakeHost{
		"vision01":    {ps: psOutput},
		"vision02":    {down: true},
		"vision03":    {listErr: errors.New("permission denied")},
		"vision04":    {ps: "  300 ?  S  bash\n"},
		"vision05":    {ps: psOutput, killFail: map[string]bool{"kill -9 203": true}},
		"visiongpu01": {},
	}}
	ml := plan.MachineList{
		plan.NewMachine("vision", plan.GPU, 1),
		plan.NewMachine("vision", plan.CPU, 5),
		plan.NewMachine("vision", plan.CPU, 4),
		plan.NewMachine("vision", plan.CPU, 3),
		plan.NewMachine("vision", plan.CPU, 2),
		plan.NewMachine("vision", plan.CPU, 1),
	}
	r := Reaper{
		JobName:     "render",
		User:        "alice",
		Self:        "visiongpu01.lab.example.org",
		Workers:     2,
		PingTimeout: time.Second,
		Executor:    lab,
		Pinger:      lab,
	}
	results := r.Reap(context.Background(), ml)
	var got []string
	for _, res := range results {
		got = append(got, res.Host+"="+res.Outcome.String())
	}
	want := []string{
		"vision01=killed",
		"vision02=unreachable",
		"vision03=list-failed",
		"vision04=none",
		"vision05=partial",
		"visiongpu01=self",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(results[0].Killed, []int{202, 203}) {
		t.Errorf("unexpected kills on vision01: %v", results[0].Killed)
	}
	if len(lab.calls["visiongpu01"]) != 0 || len(lab.calls["vision02"]) != 0 {
		t.Errorf("self and unreachable machines should not be contacted: %v", lab.calls)
	}
	s := Summary(results)
	if s[Killed] != 1 || s[Partial] != 1 || s[Self] != 1 {
		t.Errorf("unexpected summary %v", s)
	}
}

func Test_ReapListOnly(t *testing.T) {
	lab := &fakeLab{hosts: map[string]*fakeHost{"vision01": {ps: psOutput}}}
	r := Reaper{JobName: "render", User: "alice", ListOnly: true, Executor: lab, Pinger: lab}
	results := r.Reap(context.Background(), plan.MachineList{plan.NewMachine("vision", plan.CPU, 1)})
	if len(results[0].Matched) != 2 || len(results[0].Killed) != 0 {
		t.Errorf("unexpected result %v", results[0])
	}
	if calls := lab.calls["vision01"]; len(calls) != 1 {
		t.Errorf("list only mode should not kill: %v", calls)
	}
}

func Test_Machines(t *testing.T) {
	var f FlagSet
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	f.Register(fs)
	if err := fs.Parse([]string{"-pool", "gpu", "-host-prefix", "lab"}); err != nil {
		t.Fatal(err)
	}
	ml, err := f.Machines()
	if err != nil {
		t.Fatal(err)
	}
	if len(ml) != 20 || ml[0].Host != "labgpu01" {
		t.Errorf("unexpected machines %v", ml)
	}

	dir := t.TempDir()
	d := pool.New(dir)
	m := pool.Manifest{JobName: "render", Slots: []pool.SlotHost{
		{Host: "vision07", Pool: "cpu"},
		{Host: "visiongpu03", Pool: "gpu"},
	}}
	if _, err := d.WriteManifest(m); err != nil {
		t.Fatal(err)
	}
	f = FlagSet{Pools: "cgpu", Manifest: dir}
	ml, err = f.Machines()
	if err != nil {
		t.Fatal(err)
	}
	if ml.String() != "vision07,visiongpu03" {
		t.Errorf("unexpected machines %s", ml)
	}
}

func Test_MachinesFromConfig(t *testing.T) {
	dir := t.TempDir()
	ini := fmt.Sprintf("[ENVIRONMENT]\ncurr_dir = %s\n[JOB]\nbin = sh\njob_file = a.sh\nparams_file = p\npool_dir = pool\n[MACHINES]\ncpu = 4, 6\ngpu = 1..2\n", dir)
	name := filepath.Join(dir, "job.ini")
	if err := os.WriteFile(name, []byte(ini), 0644); err != nil {
		t.Fatal(err)
	}
	f := FlagSet{Pools: "cpu", ConfigFile: name}
	ml, err := f.Machines()
	if err != nil {
		t.Fatal(err)
	}
	if ml.Sorted().String() != "vision04,vision06" {
		t.Errorf("unexpected machines %s", ml)
	}
}

func Test_flag(t *testing.T) {
	var f FlagSet
	if err := f.Parse([]string{"jobpool-reap"}); err == nil {
		t.Error("expected an error without a job name")
	}
	if err := f.Parse([]string{"jobpool-reap", "-n", "-t", "4", "render"}); err != nil {
		t.Fatal(err)
	}
	if f.JobName != "render" || !f.ListOnly || f.Workers != 4 {
		t.Errorf("unexpected flags %+v", f)
	}
}
