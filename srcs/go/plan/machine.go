package plan

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

type Pool int

const (
	CPU Pool = iota
	GPU
)

func (p Pool) String() string {
	if p == GPU {
		return "gpu"
	}
	return "cpu"
}

var errInvalidPool = errors.New("invalid machine pool")

func ParsePool(s string) (Pool, error) {
	switch strings.ToLower(s) {
	case "cpu":
		return CPU, nil
	case "gpu":
		return GPU, nil
	}
	return CPU, fmt.Errorf("%w: %q", errInvalidPool, s)
}

// ParsePoolSelector parses cpu, gpu or cgpu (both).
func ParsePoolSelector(s string) ([]Pool, error) {
	switch strings.ToLower(s) {
	case "cpu":
		return []Pool{CPU}, nil
	case "gpu":
		return []Pool{GPU}, nil
	case "cgpu", "":
		return []Pool{CPU, GPU}, nil
	}
	return nil, fmt.Errorf("%w: %q, options are: cpu | gpu | cgpu", errInvalidPool, s)
}

// Machine is a host of the lab. It has no state beyond its name.
type Machine struct {
	Pool   Pool
	Number int
	Host   string
}

// Suffix is NN for CPU machines and gpuNN for GPU machines.
func Suffix(pool Pool, n int) string {
	if pool == GPU {
		return fmt.Sprintf("gpu%02d", n)
	}
	return fmt.Sprintf("%02d", n)
}

func NewMachine(prefix string, pool Pool, n int) Machine {
	return Machine{Pool: pool, Number: n, Host: prefix + Suffix(pool, n)}
}

func (m Machine) String() string {
	return m.Host
}

type MachineList []Machine

func (ml MachineList) Hosts() []string {
	var hs []string
	for _, m := range ml {
		hs = append(hs, m.Host)
	}
	return hs
}

func (ml MachineList) String() string {
	return strings.Join(ml.Hosts(), ",")
}

func (ml MachineList) Select(pools ...Pool) MachineList {
	var sel MachineList
	for _, m := range ml {
		for _, p := range pools {
			if m.Pool == p {
				sel = append(sel, m)
				break
			}
		}
	}
	return sel
}

// Sorted returns a copy ordered by host name.
func (ml MachineList) Sorted() MachineList {
	s := append(MachineList(nil), ml...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Host < s[j].Host })
	return s
}

const DefaultHostPrefix = `vision`

type MachineConfig struct {
	HostPrefix string
	CPU        []int
	GPU        []int
	Shuffle    bool
}

// DefaultMachineConfig covers the whole lab.
var DefaultMachineConfig = MachineConfig{
	HostPrefix: DefaultHostPrefix,
	CPU:        seq(1, 38),
	GPU:        seq(1, 20),
}

func seq(a, b int) []int {
	var ns []int
	for i := a; i <= b; i++ {
		ns = append(ns, i)
	}
	return ns
}

// BuildMachineList lists CPU machines then GPU machines. When Shuffle is set,
// each group is shuffled independently with rng.
func BuildMachineList(cfg MachineConfig, rng *rand.Rand) MachineList {
	prefix := cfg.HostPrefix
	if len(prefix) == 0 {
		prefix = DefaultHostPrefix
	}
	var ml MachineList
	for _, n := range cfg.CPU {
		ml = append(ml, NewMachine(prefix, CPU, n))
	}
	for _, n := range cfg.GPU {
		ml = append(ml, NewMachine(prefix, GPU, n))
	}
	if cfg.Shuffle && rng != nil {
		return ml.Shuffled(rng)
	}
	return ml
}

// Shuffled returns the CPU machines then the GPU machines, each group shuffled on its own.
func (ml MachineList) Shuffled(rng *rand.Rand) MachineList {
	cpus := ml.Select(CPU)
	gpus := ml.Select(GPU)
	rng.Shuffle(len(cpus), func(i, j int) { cpus[i], cpus[j] = cpus[j], cpus[i] })
	rng.Shuffle(len(gpus), func(i, j int) { gpus[i], gpus[j] = gpus[j], gpus[i] })
	return append(cpus, gpus...)
}
