package hostfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vislab/jobpool/srcs/go/plan"
)

// ParseFile parses a machine file: one `<host> [pool=cpu|gpu]` per line.
func ParseFile(filename string) (plan.MachineList, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(string(bs))
}

func Parse(text string) (plan.MachineList, error) {
	var ml plan.MachineList
	for _, line := range strings.Split(text, "\n") {
		line := trimComment(line)
		line = strings.TrimSpace(line)
		if len(line) <= 0 {
			continue
		}
		m, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		ml = append(ml, *m)
	}
	return ml, nil
}

var errInvalidHostfile = errors.New("invalid hostfile")

func parseLine(line string) (*plan.Machine, error) {
	parts := strings.Fields(line)
	m := &plan.Machine{Host: parts[0], Pool: plan.CPU}
	for _, kv := range parts[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errInvalidHostfile, line)
		}
		switch k {
		case `pool`:
			p, err := plan.ParsePool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errInvalidHostfile, err)
			}
			m.Pool = p
		default:
			return nil, fmt.Errorf("%w: unknown key %q", errInvalidHostfile, k)
		}
	}
	return m, nil
}

func trimComment(line string) string {
	parts := strings.SplitN(line, "#", 2)
	return parts[0]
}
