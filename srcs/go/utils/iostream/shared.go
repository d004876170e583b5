package iostream

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// SharedLog is an append-only file written by many concurrent jobs.
// Each job's output is buffered and appended as one block, preceded by a banner.
type SharedLog struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSharedLog(w io.Writer) *SharedLog {
	return &SharedLog{w: w}
}

// Section returns a writer whose content is appended to l on Close.
func (l *SharedLog) Section(banner string) io.WriteCloser {
	return &section{log: l, banner: banner}
}

func (l *SharedLog) append(banner string, body []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.w, "==================== %s ====================\n", banner); err != nil {
		return err
	}
	_, err := l.w.Write(body)
	return err
}

type section struct {
	log    *SharedLog
	banner string
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (s *section) Write(bs []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(bs)
}

func (s *section) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.append(s.banner, s.buf.Bytes())
}
