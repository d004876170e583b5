package iostream

import (
	"io"
)

type StdWriters struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Lines fans the two streams out to every one of ws, line by line.
func Lines(ws ...*StdWriters) (*LineWriter, *LineWriter) {
	var outs, errs []io.Writer
	for _, w := range ws {
		outs = append(outs, w.Stdout)
		errs = append(errs, w.Stderr)
	}
	return NewLineWriter(outs...), NewLineWriter(errs...)
}

// Close closes every writer that is also an io.Closer.
func (w *StdWriters) Close() error {
	var first error
	for _, x := range []io.Writer{w.Stdout, w.Stderr} {
		if c, ok := x.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
