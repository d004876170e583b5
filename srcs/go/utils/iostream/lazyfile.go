package iostream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type lazyFile struct {
	name string
	flag int
	f    io.WriteCloser
}

// NewLazyFile creates filename on first Write, truncating it.
func NewLazyFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename, flag: os.O_CREATE | os.O_WRONLY | os.O_TRUNC}
}

// NewLazyAppendFile opens filename for appending on first Write.
func NewLazyAppendFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename, flag: os.O_CREATE | os.O_WRONLY | os.O_APPEND}
}

func (f *lazyFile) Write(bs []byte) (int, error) {
	if f.f == nil {
		if err := f.create(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file %s: %v\n", f.name, err)
			os.Stderr.Write(bs)
			return 0, err
		}
	}
	return f.f.Write(bs)
}

func (f *lazyFile) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *lazyFile) create() error {
	if err := os.MkdirAll(filepath.Dir(f.name), os.ModePerm); err != nil {
		return err
	}
	var err error
	f.f, err = os.OpenFile(f.name, f.flag, 0644)
	return err
}

func NewFileRedirector(name string) *StdWriters {
	return &StdWriters{
		Stdout: NewLazyFile(name + ".stdout.log"),
		Stderr: NewLazyFile(name + ".stderr.log"),
	}
}
