package job

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder is used as the only expected output when no expectation is
// configured. It never exists, so the job always runs.
const Placeholder = `a-nonexistent-placeholder-file`

// Job is a shell command and the files whose existence proves it is done.
type Job struct {
	Index   int
	Cmd     string
	Expects []string
}

func (j Job) String() string {
	return fmt.Sprintf("#%d %s", j.Index, j.Cmd)
}

var ErrLengthMismatch = errors.New("commands and expectations must correspond line by line")

// Generate pairs cmdPrefix with each line of params. expects may be nil,
// otherwise it must have one line of space separated paths per params line.
func Generate(cmdPrefix string, params []string, expects []string) ([]Job, error) {
	if expects != nil && len(expects) != len(params) {
		return nil, fmt.Errorf("%w: %d params, %d expects", ErrLengthMismatch, len(params), len(expects))
	}
	var jobs []Job
	for i, p := range params {
		cmd := strings.TrimSpace(cmdPrefix + " " + strings.TrimSpace(p))
		es := []string{Placeholder}
		if expects != nil {
			es = strings.Fields(expects[i])
		}
		jobs = append(jobs, Job{Index: i, Cmd: cmd, Expects: es})
	}
	return jobs, nil
}

// FromLines builds jobs from already formed commands and expectation lines.
func FromLines(cmds []string, expects []string) ([]Job, error) {
	if len(cmds) != len(expects) {
		return nil, fmt.Errorf("%w: %d commands, %d expects", ErrLengthMismatch, len(cmds), len(expects))
	}
	var jobs []Job
	for i, c := range cmds {
		jobs = append(jobs, Job{Index: i, Cmd: strings.TrimSpace(c), Expects: strings.Fields(expects[i])})
	}
	return jobs, nil
}

// ReadLines reads a newline delimited file. A trailing newline does not
// produce an extra empty line; interior empty lines are kept.
func ReadLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		lines = append(lines, strings.TrimRight(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
