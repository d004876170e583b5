package job

import (
	"errors"
	"fmt"
	"sort"
)

// Slot is one machine's share of the job list.
type Slot struct {
	Index int
	Jobs  []Job
}

var errNoSlots = errors.New("number of slots must be positive")

// Split assigns job i to slot i mod n, keeping relative order within each slot.
func Split(jobs []Job, n int) ([]Slot, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", errNoSlots, n)
	}
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Index = i
	}
	for i, j := range jobs {
		s := &slots[i%n]
		s.Jobs = append(s.Jobs, j)
	}
	return slots, nil
}

// SplitLines is Split for raw command and expectation lists.
func SplitLines(cmds []string, expects [][]string, n int) ([]Slot, error) {
	if len(cmds) != len(expects) {
		return nil, fmt.Errorf("%w: %d commands, %d expects", ErrLengthMismatch, len(cmds), len(expects))
	}
	jobs := make([]Job, len(cmds))
	for i := range cmds {
		jobs[i] = Job{Index: i, Cmd: cmds[i], Expects: expects[i]}
	}
	return Split(jobs, n)
}

// Merge inverts Split: it reconstructs the original order from slots.
func Merge(slots []Slot) []Job {
	var jobs []Job
	for _, s := range slots {
		jobs = append(jobs, s.Jobs...)
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Index < jobs[j].Index })
	return jobs
}
