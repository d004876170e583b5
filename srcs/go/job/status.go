package job

import "os"

type Status int

const (
	Pending Status = iota
	Skipped
	Running
	Succeeded
	Failed
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Skipped:   "skipped",
	Running:   "running",
	Succeeded: "succeeded",
	Failed:    "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == Skipped || s == Succeeded || s == Failed
}

// ExistsFunc reports whether a path exists.
type ExistsFunc func(path string) bool

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Check is Skipped only when every expected output exists. A partially
// produced job, or one without any expectation, stays Pending.
func Check(j Job, exists ExistsFunc) Status {
	if len(j.Expects) == 0 {
		return Pending
	}
	for _, f := range j.Expects {
		if !exists(f) {
			return Pending
		}
	}
	return Skipped
}
