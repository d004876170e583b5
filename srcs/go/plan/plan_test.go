package plan

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func Test_ParseNumbers(t *testing.T) {
	cases := []struct {
		text string
		want []int
	}{
		{"1..4", []int{1, 2, 3, 4}},
		{"1,3,5", []int{1, 3, 5}},
		{"[1, 2, 7]", []int{1, 2, 7}},
		{"1..3, 9", []int{1, 2, 3, 9}},
		{"range(1, 4)", []int{1, 2, 3}},
		{"range(3)", []int{0, 1, 2}},
		{"[]", nil},
		{"", nil},
	}
	for _, c := range cases {
		got, err := ParseNumbers(c.text)
		if err != nil {
			t.Errorf("ParseNumbers(%q): %v", c.text, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseNumbers(%q) = %v, want %v", c.text, got, c.want)
		}
	}
	for _, bad := range []string{"4..1", "a", "1,,x", "-1", "__import__('os')", "range(1,2,3)"} {
		if _, err := ParseNumbers(bad); err == nil {
			t.Errorf("ParseNumbers(%q) should fail", bad)
		}
	}
}

func Test_BuildMachineList(t *testing.T) {
	cfg := MachineConfig{HostPrefix: "vision", CPU: []int{1, 2, 3}, GPU: []int{4, 5}}
	ml := BuildMachineList(cfg, nil)
	want := []string{"vision01", "vision02", "vision03", "visiongpu04", "visiongpu05"}
	if !reflect.DeepEqual(ml.Hosts(), want) {
		t.Fatalf("got %v, want %v", ml.Hosts(), want)
	}

	cfg.CPU = seq(1, 30)
	cfg.Shuffle = true
	ml = BuildMachineList(cfg, rand.New(rand.NewSource(1)))
	if len(ml) != 32 {
		t.Fatalf("unexpected length %d", len(ml))
	}
	for i, m := range ml {
		if (i < 30) != (m.Pool == CPU) {
			t.Fatalf("CPU machines must come before GPU machines: %v", ml)
		}
	}
	hosts := ml.Select(CPU).Hosts()
	sort.Strings(hosts)
	for i, h := range hosts {
		if h != NewMachine("vision", CPU, i+1).Host {
			t.Fatalf("shuffle lost or duplicated a machine: %v", hosts)
		}
	}
}

func Test_ParsePoolSelector(t *testing.T) {
	ps, err := ParsePoolSelector("cgpu")
	if err != nil || len(ps) != 2 {
		t.Errorf("cgpu should select both pools")
	}
	if _, err := ParsePoolSelector("tpu"); err == nil {
		t.Errorf("tpu is not a pool")
	}
}

func Test_Sorted(t *testing.T) {
	ml := MachineList{NewMachine("v", GPU, 1), NewMachine("v", CPU, 2), NewMachine("v", CPU, 1)}
	got := ml.Sorted().Hosts()
	want := []string{"v01", "v02", "vgpu01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func Test_Shuffled(t *testing.T) {
	var ml MachineList
	for i := 1; i <= 12; i++ {
		ml = append(ml, NewMachine("v", GPU, i), NewMachine("v", CPU, i))
	}
	s := ml.Shuffled(rand.New(rand.NewSource(3)))
	if len(s) != len(ml) {
		t.Fatalf("unexpected length %d", len(s))
	}
	for i, m := range s {
		if (i < 12) != (m.Pool == CPU) {
			t.Fatalf("CPU machines must come before GPU machines: %v", s)
		}
	}
	if !reflect.DeepEqual(s.Sorted(), ml.Sorted()) {
		t.Errorf("shuffle lost or duplicated a machine: %v", s)
	}
	if reflect.DeepEqual(s.Select(CPU), ml.Select(CPU)) && reflect.DeepEqual(s.Select(GPU), ml.Select(GPU)) {
		t.Errorf("nothing was shuffled: %v", s)
	}
}
