package iostream

import (
	"bytes"
	"io"
	"sync"
)

// LineWriter copies whole lines to ws. A trailing partial line is held until Flush.
type LineWriter struct {
	mu  sync.Mutex
	buf []byte
	ws  []io.Writer
}

func NewLineWriter(ws ...io.Writer) *LineWriter {
	return &LineWriter{ws: ws}
}

func (l *LineWriter) Write(bs []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, bs...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i+1])
		l.buf = l.buf[i+1:]
	}
	return len(bs), nil
}

// Flush terminates and copies the pending partial line, if any.
func (l *LineWriter) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.emit(append(l.buf, '\n'))
		l.buf = nil
	}
}

func (l *LineWriter) emit(line []byte) {
	for _, w := range l.ws {
		w.Write(line)
	}
}
