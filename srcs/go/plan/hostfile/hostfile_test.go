package hostfile

import (
	"testing"

	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/utils/assert"
)

func Test_Parse(t *testing.T) {
	text := `
	# ...
	vision07 # ...
	# ...
   	visiongpu02 pool=gpu # ...
	`
	ml, err := Parse(text)
	assert.OK(err)
	assert.True(len(ml) == 2)
	assert.True(ml[0].Host == "vision07" && ml[0].Pool == plan.CPU)
	assert.True(ml[1].Host == "visiongpu02" && ml[1].Pool == plan.GPU)
}

func Test_ParseInvalid(t *testing.T) {
	for _, text := range []string{"vision01 slots", "vision01 pool=tpu", "vision01 slots=4"} {
		if _, err := Parse(text); err == nil {
			t.Errorf("expected error for %q", text)
		}
	}
}
