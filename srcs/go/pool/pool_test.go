package pool

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vislab/jobpool/srcs/go/job"
)

func Test_SlotFiles(t *testing.T) {
	d := New("/pool")
	cmds, expects := d.SlotFiles("render", 12)
	if cmds != "/pool/render_000000012.cmds" || expects != "/pool/render_000000012.expects" {
		t.Errorf("unexpected names %s %s", cmds, expects)
	}
}

func Test_WriteReadSlots(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "pool"))
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	jobs, err := job.Generate("echo", []string{"0 0", "0 1", "1 0", "1 1"}, []string{"a", "b c", "d", "e"})
	if err != nil {
		t.Fatal(err)
	}
	slots, err := job.Split(jobs, 2)
	if err != nil {
		t.Fatal(err)
	}
	files, err := d.WriteSlots("job", slots)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Jobs != 2 {
		t.Fatalf("unexpected slot files %+v", files)
	}
	bs, _ := os.ReadFile(files[1].Cmds)
	if string(bs) != "echo 0 1\necho 1 1\n" {
		t.Errorf("unexpected cmds file %q", bs)
	}
	bs, _ = os.ReadFile(files[1].Expects)
	if string(bs) != "b c\ne\n" {
		t.Errorf("unexpected expects file %q", bs)
	}
	got, err := ReadSlot(files[0].Cmds, files[0].Expects)
	if err != nil {
		t.Fatal(err)
	}
	want := []job.Job{
		{Index: 0, Cmd: "echo 0 0", Expects: []string{"a"}},
		{Index: 1, Cmd: "echo 1 0", Expects: []string{"d"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func Test_ReadSlotMismatch(t *testing.T) {
	dir := t.TempDir()
	cmds := filepath.Join(dir, "x.cmds")
	expects := filepath.Join(dir, "x.expects")
	os.WriteFile(cmds, []byte("a\nb\n"), 0644)
	os.WriteFile(expects, []byte("a\n"), 0644)
	if _, err := ReadSlot(cmds, expects); !errors.Is(err, job.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
}

func Test_Reset(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "pool"))
	os.MkdirAll(d.Path, 0755)
	stale := filepath.Join(d.Path, "old_000000000.cmds")
	os.WriteFile(stale, []byte("x\n"), 0644)
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived reset")
	}
}

func Test_WriteSlotsMultiline(t *testing.T) {
	d := New(t.TempDir())
	slots := []job.Slot{{Index: 0, Jobs: []job.Job{{Cmd: "echo a\necho b"}}}}
	if _, err := d.WriteSlots("x", slots); err == nil {
		t.Errorf("multi-line commands must be rejected")
	}
}

func Test_LogNames(t *testing.T) {
	if s := FailureLog("/p/job_000000001.cmds"); s != "/p/job_000000001.cmds.log" {
		t.Errorf("unexpected failure log %s", s)
	}
	out, errs := OutputLogs("/p/job_000000001.cmds")
	if out != "/p/job_000000001.out" || errs != "/p/job_000000001.err" {
		t.Errorf("unexpected output logs %s %s", out, errs)
	}
}

func Test_Manifest(t *testing.T) {
	d := New(t.TempDir())
	m := Manifest{
		ID:        "abc",
		JobName:   "render",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Jobs:      4,
		Slots: []SlotHost{
			{SlotFile: SlotFile{Slot: 0, Cmds: "a.cmds", Expects: "a.expects", Jobs: 2}, Host: "vision01", Pool: "cpu"},
			{SlotFile: SlotFile{Slot: 1, Cmds: "b.cmds", Expects: "b.expects", Jobs: 2}, Host: "visiongpu03", Pool: "gpu"},
		},
	}
	name, err := d.WriteManifest(m)
	if err != nil {
		t.Fatal(err)
	}
	bs, _ := os.ReadFile(name)
	if !strings.Contains(string(bs), "host: visiongpu03") {
		t.Errorf("unexpected manifest:\n%s", bs)
	}
	got, err := ReadManifest(d.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Hosts(), []string{"vision01", "visiongpu03"}) || got.Slots[1].Cmds != "b.cmds" {
		t.Errorf("unexpected manifest %+v", got)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("created_at lost: %v", got.CreatedAt)
	}
}
