package iostream

import (
	"io"
	"os"
	"sync"

	"github.com/vislab/jobpool/srcs/go/utils/xterm"
)

// prefixWriter tags every write with a job label. Tee writes whole lines,
// so one Write is one line of job output.
type prefixWriter struct {
	mu     *sync.Mutex
	prefix []byte
	w      io.Writer
}

func (p prefixWriter) Write(bs []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := make([]byte, 0, len(p.prefix)+len(bs))
	line = append(append(line, p.prefix...), bs...)
	if _, err := p.w.Write(line); err != nil {
		return 0, err
	}
	return len(bs), nil
}

var consoleMu sync.Mutex

// NewXTermRedirector echoes a job's output to the console as `[name::stdout] line`.
func NewXTermRedirector(name string, c xterm.Color) *StdWriters {
	return newPrefixRedirector(name, c, os.Stdout, os.Stderr)
}

func newPrefixRedirector(name string, c xterm.Color, stdout, stderr io.Writer) *StdWriters {
	if c == nil {
		c = xterm.NoColor
	}
	return &StdWriters{
		Stdout: prefixWriter{mu: &consoleMu, prefix: []byte("[" + c.S(name) + "::stdout] "), w: stdout},
		Stderr: prefixWriter{mu: &consoleMu, prefix: []byte("[" + c.S(name) + "::" + xterm.Warn.S("stderr") + "] "), w: stderr},
	}
}
