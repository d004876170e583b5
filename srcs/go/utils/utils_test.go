package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vislab/jobpool/srcs/go/utils/assert"
)

func Test_MergeErrors(t *testing.T) {
	assert.True(MergeErrors([]error{nil, nil}, "ping") == nil)
	err := MergeErrors([]error{errors.New("a"), nil, errors.New("b")}, "ping")
	assert.True(err != nil)
	assert.True(err.Error() == "ping failed with 2 errors: a, b")
}

func Test_Pluralize(t *testing.T) {
	assert.True(Pluralize(1, "job", "jobs") == "1 job")
	assert.True(Pluralize(0, "job", "jobs") == "0 jobs")
	assert.True(Pluralize(1234, "job", "jobs") == "1,234 jobs")
}

func Test_ShortHost(t *testing.T) {
	assert.True(ShortHost("vision03.csail.mit.edu") == "vision03")
	assert.True(ShortHost("vision03") == "vision03")
}

func Test_AskToProceed(t *testing.T) {
	var out bytes.Buffer
	assert.OK(AskToProceed(strings.NewReader("y\n"), &out, "go?"))
	assert.True(strings.Contains(out.String(), "go?"))
	err := AskToProceed(strings.NewReader("no\n"), &out, "go?")
	assert.True(errors.Is(err, ErrDeclined))
	err = AskToProceed(strings.NewReader(""), &out, "go?")
	assert.True(errors.Is(err, ErrDeclined))
}
