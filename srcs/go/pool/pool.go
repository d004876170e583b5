// Package pool manages the shared directory that holds per-slot command and
// expectation files, launch logs and the run manifest.
package pool

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vislab/jobpool/srcs/go/job"
)

const (
	CmdsExt    = `.cmds`
	ExpectsExt = `.expects`

	LaunchLogName = `ssh.cmds`
	ManifestName  = `manifest.yaml`
)

var errMultilineCommand = errors.New("command spans multiple lines")

// Dir is a handle on one pool directory.
type Dir struct {
	Path string
}

func New(path string) Dir {
	return Dir{Path: path}
}

// Reset removes the directory with everything in it and creates it again.
func (d Dir) Reset() error {
	if err := os.RemoveAll(d.Path); err != nil {
		return err
	}
	return os.MkdirAll(d.Path, os.ModePerm)
}

// SlotFiles names the command and expectation files of slot i.
func (d Dir) SlotFiles(prefix string, i int) (string, string) {
	base := filepath.Join(d.Path, fmt.Sprintf("%s_%09d", prefix, i))
	return base + CmdsExt, base + ExpectsExt
}

// SlotFile is the pair of files backing one slot.
type SlotFile struct {
	Slot    int    `yaml:"slot"`
	Cmds    string `yaml:"cmds"`
	Expects string `yaml:"expects"`
	Jobs    int    `yaml:"jobs"`
}

// WriteSlots writes one command file and one expectation file per slot,
// overwriting existing files. Line i of both files belongs to the same job.
func (d Dir) WriteSlots(prefix string, slots []job.Slot) ([]SlotFile, error) {
	var files []SlotFile
	for _, s := range slots {
		cmdsFile, expectsFile := d.SlotFiles(prefix, s.Index)
		var cmds, expects bytes.Buffer
		for _, j := range s.Jobs {
			if strings.ContainsAny(j.Cmd, "\r\n") {
				return nil, fmt.Errorf("%w: %s", errMultilineCommand, j)
			}
			cmds.WriteString(j.Cmd + "\n")
			expects.WriteString(strings.Join(j.Expects, " ") + "\n")
		}
		if err := os.WriteFile(cmdsFile, cmds.Bytes(), 0644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(expectsFile, expects.Bytes(), 0644); err != nil {
			return nil, err
		}
		files = append(files, SlotFile{Slot: s.Index, Cmds: cmdsFile, Expects: expectsFile, Jobs: len(s.Jobs)})
	}
	return files, nil
}

// ReadSlot reads the jobs of one slot back. Job indices are positions within the slot.
func ReadSlot(cmdsFile, expectsFile string) ([]job.Job, error) {
	cmds, err := job.ReadLines(cmdsFile)
	if err != nil {
		return nil, err
	}
	expects, err := job.ReadLines(expectsFile)
	if err != nil {
		return nil, err
	}
	jobs, err := job.FromLines(cmds, expects)
	if err != nil {
		return nil, fmt.Errorf("%s and %s: %w", cmdsFile, expectsFile, err)
	}
	return jobs, nil
}

// WriteLaunchLog records every launch command, whatever its outcome.
func (d Dir) WriteLaunchLog(lines []string) (string, error) {
	name := filepath.Join(d.Path, LaunchLogName)
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l + "\n")
	}
	return name, os.WriteFile(name, buf.Bytes(), 0644)
}

func trimCmdsExt(cmdsFile string) string {
	return strings.TrimSuffix(cmdsFile, CmdsExt)
}

// FailureLog is where an execution client records its host and failed commands.
func FailureLog(cmdsFile string) string {
	return trimCmdsExt(cmdsFile) + CmdsExt + ".log"
}

// OutputLogs are the shared stdout and stderr files of one slot.
func OutputLogs(cmdsFile string) (string, string) {
	base := trimCmdsExt(cmdsFile)
	return base + ".out", base + ".err"
}
