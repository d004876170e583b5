package iostream

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func Test_LineWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := NewLineWriter(&a, &b)
	w.Write([]byte("x\nhal"))
	if a.String() != "x\n" {
		t.Errorf("partial line should be held, got %q", a.String())
	}
	w.Write([]byte("f\ny"))
	w.Flush()
	if a.String() != "x\nhalf\ny\n" || b.String() != a.String() {
		t.Errorf("unexpected output %q %q", a.String(), b.String())
	}
}

func Test_LazyFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "job")
	w := NewFileRedirector(name)
	if _, err := os.Stat(name + ".stdout.log"); !os.IsNotExist(err) {
		t.Fatalf("file should not exist before first write")
	}
	w.Stdout.Write([]byte("hello\n"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(name + ".stdout.log")
	if err != nil || string(bs) != "hello\n" {
		t.Errorf("unexpected content %q: %v", bs, err)
	}
	if _, err := os.Stat(name + ".stderr.log"); !os.IsNotExist(err) {
		t.Errorf("unused stderr log should not be created")
	}
}

func Test_SharedLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewSharedLog(&buf)
	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s := l.Section(name)
			for i := 0; i < 100; i++ {
				s.Write([]byte(name + "\n"))
			}
			s.Close()
		}(name)
	}
	wg.Wait()
	blocks := strings.Split(buf.String(), "==================== ")
	if len(blocks) != 4 {
		t.Fatalf("expected 3 banners, got %d", len(blocks)-1)
	}
	for _, b := range blocks[1:] {
		lines := strings.Split(strings.TrimSpace(b), "\n")
		name := strings.Fields(lines[0])[0]
		for _, line := range lines[1:] {
			if line != name {
				t.Fatalf("interleaved output in section %s: %q", name, line)
			}
		}
	}
}

func Test_PrefixRedirector(t *testing.T) {
	var out, errs bytes.Buffer
	w := newPrefixRedirector("job-1", nil, &out, &errs)
	stdout, stderr := Lines(w)
	stdout.Write([]byte("a\nb"))
	stderr.Write([]byte("oops\n"))
	stdout.Flush()
	if out.String() != "[job-1::stdout] a\n[job-1::stdout] b\n" {
		t.Errorf("unexpected stdout %q", out.String())
	}
	if !strings.HasPrefix(errs.String(), "[job-1::") || !strings.HasSuffix(errs.String(), "] oops\n") {
		t.Errorf("unexpected stderr %q", errs.String())
	}
}
